package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bookingAPI(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusCreated)
	})
}

func preflight(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, "/api/agendamentos", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type, x-requested-with")
	return req
}

func TestCORS_PreflightForBookingSubmit(t *testing.T) {
	calls := 0
	mw := CORS([]string{"https://parceiro.example/"})(bookingAPI(&calls))

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, preflight("https://parceiro.example"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, calls, "preflight never reaches the handler")
	assert.Equal(t, "https://parceiro.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type, X-Requested-With", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORS_SubmitExposesRetryAfter(t *testing.T) {
	calls := 0
	mw := CORS([]string{"https://parceiro.example"})(bookingAPI(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/agendamentos", strings.NewReader(`{"nome":"Ana"}`))
	req.Header.Set("Origin", "https://parceiro.example")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "https://parceiro.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Retry-After", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"), "method list is for preflights only")
}

func TestCORS_UnlistedOrigin(t *testing.T) {
	calls := 0
	mw := CORS([]string{"https://parceiro.example"})(bookingAPI(&calls))

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, preflight("https://outro.example"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/api/horarios?data=2025-10-06", nil)
	req.Header.Set("Origin", "https://outro.example")
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, "simple requests pass; the browser withholds the body")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 1, calls)
}

func TestCORS_WildcardAndSameOrigin(t *testing.T) {
	calls := 0
	mw := CORS([]string{" * "})(bookingAPI(&calls))

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, preflight("https://qualquer.example"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://qualquer.example", rec.Header().Get("Access-Control-Allow-Origin"))

	// Same-origin form posts carry no Origin handling.
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agendar", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("Vary"))
}
