package appointments

import (
	"sort"
	"time"

	"github.com/dentalops/booking-gateway/internal/nexhealth"
)

// nearestLimit caps how many fallback candidates a slot search returns.
const nearestLimit = 3

// CandidateSlot is one bookable interval after flattening upstream's
// per-location/per-provider grouping.
type CandidateSlot struct {
	LocationID  int64     `json:"lid"`
	ProviderID  int64     `json:"pid"`
	StartTime   time.Time `json:"time"`
	EndTime     time.Time `json:"end_time"`
	OperatoryID int64     `json:"operatory_id"`
}

// flattenSlots merges slot groups into one list, keeping upstream's listing
// order, and drops slots outside the operatory filter when one is given.
func flattenSlots(groups []nexhealth.SlotGroup, operatoryIDs []int64) []CandidateSlot {
	allowed := make(map[int64]struct{}, len(operatoryIDs))
	for _, id := range operatoryIDs {
		allowed[id] = struct{}{}
	}

	var out []CandidateSlot
	for _, group := range groups {
		for _, slot := range group.Slots {
			if len(allowed) > 0 {
				if _, ok := allowed[slot.OperatoryID]; !ok {
					continue
				}
			}
			out = append(out, CandidateSlot{
				LocationID:  group.LocationID,
				ProviderID:  group.ProviderID,
				StartTime:   slot.Time,
				EndTime:     slot.EndTime,
				OperatoryID: slot.OperatoryID,
			})
		}
	}
	return out
}

// nearestSlots ranks candidates by absolute distance of their start time from
// the reference timestamp and returns the closest few. Ties keep upstream's
// original listing order.
func nearestSlots(candidates []CandidateSlot, reference time.Time, limit int) []CandidateSlot {
	ranked := make([]CandidateSlot, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return absDistance(ranked[i].StartTime, reference) < absDistance(ranked[j].StartTime, reference)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func absDistance(t, reference time.Time) time.Duration {
	d := t.Sub(reference)
	if d < 0 {
		d = -d
	}
	return d
}

// matchExactSlot requires a candidate whose start, end, and operatory all
// match the caller's choice. Times compare as instants, so the same moment
// written in different zones still matches. There is deliberately no
// nearest-slot fallback here: the caller already picked this slot from a
// prior availability query.
func matchExactSlot(groups []nexhealth.SlotGroup, start, end time.Time, operatoryID int64) (*CandidateSlot, error) {
	for _, candidate := range flattenSlots(groups, nil) {
		if candidate.OperatoryID != operatoryID {
			continue
		}
		if !candidate.StartTime.Equal(start) || !candidate.EndTime.Equal(end) {
			continue
		}
		match := candidate
		return &match, nil
	}
	return nil, ErrSlotNotFound
}
