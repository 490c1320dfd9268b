// Package nexhealth is a thin client for the NexHealth practice-management
// API. It owns bearer-token acquisition and the mandatory subdomain/location
// query parameters; callers work with typed requests and never see the wire
// envelope.
package nexhealth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dentalops/booking-gateway/pkg/logging"
)

const (
	defaultTimeout = 20 * time.Second
	acceptHeader   = "application/vnd.Nexhealth+json;version=2"
)

// ErrAuthentication indicates the API-key-for-bearer-token exchange failed.
var ErrAuthentication = errors.New("nexhealth: authentication failed")

// APIError is a non-2xx answer from upstream, surfaced with its status and
// raw body so handlers can relay what the provider actually said.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Body
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return fmt.Sprintf("nexhealth: upstream status %d: %s", e.StatusCode, msg)
}

// Config holds configuration for the NexHealth client
type Config struct {
	BaseURL    string // e.g. "https://nexhealth.info"
	APIKey     string // static API key exchanged for a bearer token
	Subdomain  string // practice subdomain, required on every call
	LocationID string // location id, required on every call
	Timeout    time.Duration
}

// Client talks to the NexHealth API. The cached bearer token is the only
// shared mutable state; a mutex serialises the first-use exchange so
// concurrent requests trigger exactly one authenticate call.
type Client struct {
	baseURL    string
	apiKey     string
	subdomain  string
	locationID string
	httpClient *http.Client
	logger     *logging.Logger

	mu    sync.Mutex
	token string
}

// New creates a new NexHealth client.
func New(cfg Config, logger *logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("nexhealth: BaseURL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("nexhealth: APIKey is required")
	}
	if cfg.Subdomain == "" {
		return nil, fmt.Errorf("nexhealth: Subdomain is required")
	}
	if cfg.LocationID == "" {
		return nil, fmt.Errorf("nexhealth: LocationID is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		subdomain:  cfg.Subdomain,
		locationID: cfg.LocationID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// FindPatient looks up an existing patient by any combination of email,
// phone, and name. A miss is not an error: it returns (nil, nil).
func (c *Client) FindPatient(ctx context.Context, q PatientQuery) (*Patient, error) {
	params := url.Values{}
	if q.Email != "" {
		params.Set("email", q.Email)
	}
	if q.Phone != "" {
		params.Set("phone_number", q.Phone)
	}
	if q.FirstName != "" {
		params.Set("first_name", q.FirstName)
	}
	if q.LastName != "" {
		params.Set("last_name", q.LastName)
	}

	var data patientsData
	if err := c.do(ctx, http.MethodGet, "/patients", params, nil, &data); err != nil {
		return nil, err
	}
	if len(data.Patients) == 0 {
		return nil, nil
	}
	return &data.Patients[0], nil
}

// RegisterPatient creates a new patient tied to the given provider.
func (c *Client) RegisterPatient(ctx context.Context, req RegisterPatientRequest) (*Patient, error) {
	body := map[string]any{
		"provider": map[string]any{"provider_id": req.ProviderID},
		"patient": map[string]any{
			"first_name": req.FirstName,
			"last_name":  req.LastName,
			"email":      req.Email,
			"bio": map[string]any{
				"date_of_birth": req.DateOfBirth,
				"phone_number":  req.PhoneNumber,
				"gender":        req.Gender,
			},
		},
	}

	var data registerData
	if err := c.do(ctx, http.MethodPost, "/patients", nil, body, &data); err != nil {
		return nil, fmt.Errorf("nexhealth: register patient: %w", err)
	}
	return &data.User, nil
}

// AppointmentTypes fetches the full list of bookable appointment types.
func (c *Client) AppointmentTypes(ctx context.Context) ([]AppointmentType, error) {
	var data typesData
	if err := c.do(ctx, http.MethodGet, "/appointment_types", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.AppointmentTypes, nil
}

// AppointmentSlots fetches open slots across the lids×pids cross-product in a
// single upstream call; the provider accepts list parameters.
func (c *Client) AppointmentSlots(ctx context.Context, q SlotQuery) ([]SlotGroup, error) {
	params := url.Values{}
	params.Set("start_date", q.StartDate)
	params.Set("days", strconv.Itoa(q.Days))
	for _, lid := range q.LocationIDs {
		params.Add("lids[]", strconv.FormatInt(lid, 10))
	}
	for _, pid := range q.ProviderIDs {
		params.Add("pids[]", strconv.FormatInt(pid, 10))
	}

	var groups []SlotGroup
	if err := c.do(ctx, http.MethodGet, "/appointment_slots", params, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// BookAppointment commits a booking for an already-validated slot.
func (c *Client) BookAppointment(ctx context.Context, req BookRequest) (*Appointment, error) {
	params := url.Values{}
	params.Set("notify_patient", "false")

	appt := map[string]any{
		"patient_id":            req.PatientID,
		"provider_id":           req.ProviderID,
		"start_time":            req.StartTime,
		"end_time":              req.EndTime,
		"operatory_id":          req.OperatoryID,
		"note":                  req.Note,
		"is_new_clinic_patient": req.IsNewPatient,
	}

	var data appointmentData
	if err := c.do(ctx, http.MethodPost, "/appointments", params, map[string]any{"appt": appt}, &data); err != nil {
		return nil, err
	}
	return &data.Appointment, nil
}

// PatientAppointments lists a patient's appointments inside [start, end).
func (c *Client) PatientAppointments(ctx context.Context, patientID int64, start, end time.Time) ([]Appointment, error) {
	params := url.Values{}
	params.Set("patient_id", strconv.FormatInt(patientID, 10))
	params.Set("start", start.UTC().Format(time.RFC3339))
	params.Set("end", end.UTC().Format(time.RFC3339))

	var data appointmentsData
	if err := c.do(ctx, http.MethodGet, "/appointments", params, nil, &data); err != nil {
		return nil, err
	}
	return data.Appointments, nil
}

// Appointment fetches a single appointment by id.
func (c *Client) Appointment(ctx context.Context, id int64) (*Appointment, error) {
	var data appointmentData
	if err := c.do(ctx, http.MethodGet, "/appointments/"+strconv.FormatInt(id, 10), nil, nil, &data); err != nil {
		return nil, err
	}
	return &data.Appointment, nil
}

// CancelAppointment flips the appointment to cancelled=true, confirmed=false.
// Upstream keeps the record; cancellation is a state transition, not a delete.
func (c *Client) CancelAppointment(ctx context.Context, id int64) (*Appointment, error) {
	body := map[string]any{
		"appt": map[string]any{
			"cancelled": true,
			"confirmed": false,
		},
	}

	var data appointmentData
	if err := c.do(ctx, http.MethodPatch, "/appointments/"+strconv.FormatInt(id, 10), nil, body, &data); err != nil {
		return nil, err
	}
	return &data.Appointment, nil
}

// Providers lists bookable providers.
func (c *Client) Providers(ctx context.Context, page, perPage int) ([]Provider, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	var data providersData
	if err := c.do(ctx, http.MethodGet, "/providers", params, nil, &data); err != nil {
		return nil, err
	}
	return data.Providers, nil
}

// Operatories lists treatment rooms, optionally filtered.
func (c *Client) Operatories(ctx context.Context, q OperatoryQuery) ([]Operatory, error) {
	params := url.Values{}
	params.Set("include[]", "appt_categories")
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.SearchName != "" {
		params.Set("search_name", q.SearchName)
	}
	if q.ForeignID != "" {
		params.Set("foreign_id", q.ForeignID)
	}
	if q.UpdatedSince != "" {
		params.Set("updated_since", q.UpdatedSince)
	}

	var data operatoriesData
	if err := c.do(ctx, http.MethodGet, "/operatories", params, nil, &data); err != nil {
		return nil, err
	}
	return data.Operatories, nil
}

// OperatoryByID fetches a single operatory.
func (c *Client) OperatoryByID(ctx context.Context, id int64) (*Operatory, error) {
	var data operatoryData
	if err := c.do(ctx, http.MethodGet, "/operatories/"+strconv.FormatInt(id, 10), nil, nil, &data); err != nil {
		return nil, err
	}
	return &data.Operatory, nil
}

// bearerToken returns the cached token, exchanging the API key for a fresh
// one under the lock when no token is cached.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// invalidateToken drops the cached token if it is still the one the failing
// call used. A concurrent refresh that already replaced it is left alone.
func (c *Client) invalidateToken(stale string) {
	c.mu.Lock()
	if c.token == stale {
		c.token = ""
	}
	c.mu.Unlock()
}

// authenticate exchanges the static API key for a bearer token. Callers must
// hold c.mu.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/authenticates", nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrAuthentication, err)
	}
	req.Header.Set("Accept", acceptHeader)
	// The key goes in the Authorization header as-is, with no Bearer prefix.
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrAuthentication, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrAuthentication, resp.StatusCode, truncate(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrAuthentication, err)
	}
	var data tokenData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return "", fmt.Errorf("%w: no token in response", ErrAuthentication)
	}

	c.logger.Info("nexhealth authentication succeeded")
	return data.Token, nil
}

// do executes one authenticated round-trip. On a 401 it invalidates the
// cached token, re-authenticates once, and retries before surfacing the
// error. Business failures are never retried.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	resp, raw, err := c.exec(ctx, method, path, params, body, token)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken(token)
		c.logger.Warn("nexhealth token rejected, re-authenticating", "path", path)
		if token, err = c.bearerToken(ctx); err != nil {
			return err
		}
		if resp, raw, err = c.exec(ctx, method, path, params, body, token); err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("nexhealth: decode %s %s: %w", method, path, err)
	}
	if !env.Code {
		// 2xx with code:false still means the provider refused the operation.
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("nexhealth: decode %s %s data: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) exec(ctx context.Context, method, path string, params url.Values, body any, token string) (*http.Response, []byte, error) {
	query := url.Values{}
	for k, vs := range params {
		query[k] = vs
	}
	// Mandatory on every call per the upstream contract.
	query.Set("subdomain", c.subdomain)
	query.Set("location_id", c.locationID)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("nexhealth: marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), reader)
	if err != nil {
		return nil, nil, fmt.Errorf("nexhealth: create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("nexhealth: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("nexhealth: read %s %s response: %w", method, path, err)
	}
	return resp, raw, nil
}

func truncate(body []byte) string {
	msg := string(body)
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
