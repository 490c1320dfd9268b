package appointments

import (
	"errors"
	"testing"
	"time"

	"github.com/dentalops/booking-gateway/internal/nexhealth"
)

func slotAt(t *testing.T, start string, operatoryID int64) nexhealth.Slot {
	t.Helper()
	st, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatalf("bad test slot time %q: %v", start, err)
	}
	return nexhealth.Slot{Time: st, EndTime: st.Add(30 * time.Minute), OperatoryID: operatoryID}
}

func TestFlattenSlotsKeepsListingOrder(t *testing.T) {
	groups := []nexhealth.SlotGroup{
		{LocationID: 1, ProviderID: 2, Slots: []nexhealth.Slot{
			slotAt(t, "2024-06-01T09:00:00Z", 7),
			slotAt(t, "2024-06-01T10:00:00Z", 8),
		}},
		{LocationID: 1, ProviderID: 3, Slots: []nexhealth.Slot{
			slotAt(t, "2024-06-01T11:00:00Z", 7),
		}},
	}

	flat := flattenSlots(groups, nil)
	if len(flat) != 3 {
		t.Fatalf("expected 3 flattened slots, got %d", len(flat))
	}
	if flat[0].ProviderID != 2 || flat[2].ProviderID != 3 {
		t.Errorf("flattening reordered groups: %+v", flat)
	}
	if flat[1].OperatoryID != 8 {
		t.Errorf("expected operatory 8 second, got %d", flat[1].OperatoryID)
	}
}

func TestFlattenSlotsOperatoryFilter(t *testing.T) {
	groups := []nexhealth.SlotGroup{
		{LocationID: 1, ProviderID: 2, Slots: []nexhealth.Slot{
			slotAt(t, "2024-06-01T09:00:00Z", 7),
			slotAt(t, "2024-06-01T10:00:00Z", 8),
			slotAt(t, "2024-06-01T11:00:00Z", 9),
		}},
	}

	flat := flattenSlots(groups, []int64{7, 9})
	if len(flat) != 2 {
		t.Fatalf("expected 2 filtered slots, got %d", len(flat))
	}
	for _, s := range flat {
		if s.OperatoryID == 8 {
			t.Errorf("operatory 8 escaped the filter: %+v", s)
		}
	}
}

func TestNearestSlotsRanking(t *testing.T) {
	reference, _ := time.Parse(time.RFC3339, "2024-06-01T09:00:00Z")
	groups := []nexhealth.SlotGroup{
		{LocationID: 1, ProviderID: 2, Slots: []nexhealth.Slot{
			slotAt(t, "2024-06-01T14:00:00Z", 7), // +5h
			slotAt(t, "2024-06-01T08:00:00Z", 7), // -1h
			slotAt(t, "2024-06-01T09:30:00Z", 7), // +30m
			slotAt(t, "2024-06-02T09:00:00Z", 7), // +24h
			slotAt(t, "2024-06-01T11:00:00Z", 7), // +2h
		}},
	}

	nearest := nearestSlots(flattenSlots(groups, nil), reference, nearestLimit)
	if len(nearest) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(nearest))
	}

	want := []string{"2024-06-01T09:30:00Z", "2024-06-01T08:00:00Z", "2024-06-01T11:00:00Z"}
	for i, w := range want {
		if got := nearest[i].StartTime.Format(time.RFC3339); got != w {
			t.Errorf("rank %d: expected %s, got %s", i, w, got)
		}
	}

	// Distances must be non-decreasing.
	for i := 1; i < len(nearest); i++ {
		if absDistance(nearest[i].StartTime, reference) < absDistance(nearest[i-1].StartTime, reference) {
			t.Errorf("ranking not sorted at index %d", i)
		}
	}
}

func TestNearestSlotsTiesPreserveUpstreamOrder(t *testing.T) {
	reference, _ := time.Parse(time.RFC3339, "2024-06-01T09:00:00Z")
	groups := []nexhealth.SlotGroup{
		{LocationID: 1, ProviderID: 2, Slots: []nexhealth.Slot{
			slotAt(t, "2024-06-01T10:00:00Z", 1), // +1h, listed first
			slotAt(t, "2024-06-01T08:00:00Z", 2), // -1h, equidistant
		}},
	}

	nearest := nearestSlots(flattenSlots(groups, nil), reference, nearestLimit)
	if len(nearest) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(nearest))
	}
	if nearest[0].OperatoryID != 1 || nearest[1].OperatoryID != 2 {
		t.Errorf("tie-break did not preserve upstream order: %+v", nearest)
	}
}

func TestNearestSlotsFewerCandidatesThanLimit(t *testing.T) {
	reference, _ := time.Parse(time.RFC3339, "2024-06-01T09:00:00Z")
	groups := []nexhealth.SlotGroup{
		{LocationID: 1, ProviderID: 2, Slots: []nexhealth.Slot{
			slotAt(t, "2024-06-01T09:15:00Z", 7),
		}},
	}

	nearest := nearestSlots(flattenSlots(groups, nil), reference, nearestLimit)
	if len(nearest) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(nearest))
	}
}

func TestMatchExactSlot(t *testing.T) {
	start, _ := time.Parse(time.RFC3339, "2024-06-01T09:00:00Z")
	end := start.Add(30 * time.Minute)
	groups := []nexhealth.SlotGroup{
		{LocationID: 1, ProviderID: 2, Slots: []nexhealth.Slot{
			slotAt(t, "2024-06-01T08:30:00Z", 7),
			slotAt(t, "2024-06-01T09:00:00Z", 7),
			slotAt(t, "2024-06-01T09:00:00Z", 9),
		}},
	}

	match, err := matchExactSlot(groups, start, end, 7)
	if err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if match.OperatoryID != 7 || !match.StartTime.Equal(start) {
		t.Errorf("wrong slot matched: %+v", match)
	}
}

func TestMatchExactSlotIsTimezoneAgnostic(t *testing.T) {
	// Same instant written with an offset must still match a UTC candidate.
	start, _ := time.Parse(time.RFC3339, "2024-06-01T11:00:00+02:00")
	end, _ := time.Parse(time.RFC3339, "2024-06-01T11:30:00+02:00")
	groups := []nexhealth.SlotGroup{
		{LocationID: 1, ProviderID: 2, Slots: []nexhealth.Slot{
			slotAt(t, "2024-06-01T09:00:00Z", 7),
		}},
	}

	if _, err := matchExactSlot(groups, start, end, 7); err != nil {
		t.Fatalf("expected timezone-normalized match, got %v", err)
	}
}

func TestMatchExactSlotMisses(t *testing.T) {
	start, _ := time.Parse(time.RFC3339, "2024-06-01T09:00:00Z")
	end := start.Add(30 * time.Minute)
	groups := []nexhealth.SlotGroup{
		{LocationID: 1, ProviderID: 2, Slots: []nexhealth.Slot{
			slotAt(t, "2024-06-01T09:00:00Z", 9), // wrong operatory
			slotAt(t, "2024-06-01T09:30:00Z", 7), // wrong time
		}},
	}

	tests := []struct {
		name        string
		start, end  time.Time
		operatoryID int64
	}{
		{name: "wrong operatory", start: start, end: end, operatoryID: 7},
		{name: "wrong end time", start: start, end: end.Add(15 * time.Minute), operatoryID: 9},
		{name: "empty result set", start: start, end: end, operatoryID: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := matchExactSlot(groups, tt.start, tt.end, tt.operatoryID)
			if !errors.Is(err, ErrSlotNotFound) {
				t.Fatalf("expected ErrSlotNotFound, got %v", err)
			}
		})
	}
}
