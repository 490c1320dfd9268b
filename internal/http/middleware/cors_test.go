package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsHandler(origins []string) http.Handler {
	return CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORSAllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/appointment-types", nil)
	req.Header.Set("Origin", "https://app.clinic.com")
	rec := httptest.NewRecorder()

	corsHandler([]string{"https://app.clinic.com"}).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.clinic.com" {
		t.Fatalf("Allow-Origin = %q, expected the request origin", got)
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/appointment-types", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()

	corsHandler([]string{"https://app.clinic.com"}).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Allow-Origin = %q, expected no CORS headers", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("disallowed origin should still reach the handler, got %d", rec.Code)
	}
}

func TestCORSWildcard(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://anything.example.com")
	rec := httptest.NewRecorder()

	corsHandler([]string{"*"}).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anything.example.com" {
		t.Fatalf("Allow-Origin = %q, expected echoed origin", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/appointments/book", nil)
	req.Header.Set("Origin", "https://app.clinic.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	corsHandler([]string{"https://app.clinic.com"}).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, expected 204", rec.Code)
	}
}
