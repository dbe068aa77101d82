package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/barbershop-booking/internal/auth"
	"github.com/example/barbershop-booking/internal/metrics"
	"github.com/example/barbershop-booking/internal/seed"
	"github.com/example/barbershop-booking/internal/testfixtures"
)

type testServer struct {
	handler http.Handler
	harness *testfixtures.Harness
	issuer  *auth.Issuer
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := testfixtures.NewHarness(t, testfixtures.BackendMemory)
	issuer, err := auth.NewIssuer("test-secret", time.Hour, auth.WithClock(h.Clock.NowFunc()))
	require.NoError(t, err)

	handler := NewRouter(RouterConfig{
		Auth:           NewAuthHandler(h.Identity, issuer, logger),
		Catalog:        NewCatalogHandler(h.Catalog, logger),
		Availability:   NewAvailabilityHandler(h.Availability, h.Booking, logger),
		Appointments:   NewAppointmentHandler(h.Appointments, h.Booking, logger),
		Tokens:         issuer,
		RateLimiter:    limiter,
		MetricsHandler: metrics.NewBookingMetrics(nil).Handler(),
		Logger:         logger,
	})
	return &testServer{handler: handler, harness: h, issuer: issuer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:41000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/sessions", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = srv.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Sessions(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("login returns a token for the account", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/sessions", "", map[string]string{"email": "joao@gmail.com", "password": "123"})
		require.Equal(t, http.StatusCreated, rec.Code)

		resp := decode[sessionResponse](t, rec)
		assert.Equal(t, int64(1), resp.User.ID)
		assert.Equal(t, "customer", resp.User.Role)
		assert.Equal(t, "2025-05-20T10:00:00Z", resp.ExpiresAt)

		current := srv.do(t, http.MethodGet, "/sessions/current", resp.Token, nil)
		require.Equal(t, http.StatusOK, current.Code)
		assert.Equal(t, "joao@gmail.com", decode[userDTO](t, current).Email)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/sessions", "", map[string]string{"email": "joao@gmail.com", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", decode[errorResponse](t, rec).ErrorCode)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("current session requires a valid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/sessions/current", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/sessions/current", "garbage", nil).Code)
	})

	t.Run("logout", func(t *testing.T) {
		token := srv.login(t, "jardel@barber.com", "123")
		rec := srv.do(t, http.MethodDelete, "/sessions/current", token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, ok := srv.harness.Identity.CurrentUser()
		assert.False(t, ok)
	})

	t.Run("logout leaves another user's session alone", func(t *testing.T) {
		earlier := srv.login(t, "joao@gmail.com", "123")
		srv.login(t, "caio@barber.com", "123")

		rec := srv.do(t, http.MethodDelete, "/sessions/current", earlier, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		current, ok := srv.harness.Identity.CurrentUser()
		require.True(t, ok)
		assert.Equal(t, int64(3), current.ID)
	})
}

func TestRouter_Register(t *testing.T) {
	srv := newTestServer(t, nil)
	body := map[string]string{"name": "Ana", "email": "ana@x.com", "phone": "000", "password": "pw"}

	rec := srv.do(t, http.MethodPost, "/users", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[sessionResponse](t, rec)
	assert.Equal(t, int64(5), resp.User.ID)
	assert.Equal(t, seed.DefaultPhotoURL, resp.User.PhotoURL)

	stored, err := srv.harness.Store.GetUser(t.Context(), 5)
	require.NoError(t, err)
	assert.Nil(t, stored.PhotoURL, "default photo must not be persisted")

	rec = srv.do(t, http.MethodPost, "/users", "", body)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", decode[errorResponse](t, rec).ErrorCode)

	rec = srv.do(t, http.MethodPost, "/users", "", map[string]string{"name": "", "email": "bad", "password": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, decode[errorResponse](t, rec).Errors)
}

func TestRouter_Catalog(t *testing.T) {
	srv := newTestServer(t, nil)

	providers := decode[[]providerDTO](t, srv.do(t, http.MethodGet, "/providers", "", nil))
	require.Len(t, providers, 2)
	assert.Equal(t, "Jardel", providers[0].Name)

	services := decode[[]serviceDTO](t, srv.do(t, http.MethodGet, "/services", "", nil))
	assert.Len(t, services, 4)

	quote := decode[quoteDTO](t, srv.do(t, http.MethodGet, "/quote?service_id=201&service_id=203", "", nil))
	assert.Equal(t, int64(6500), quote.TotalPriceCents)
	assert.Equal(t, 55, quote.TotalDurationMinutes)

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/quote?service_id=999", "", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, srv.do(t, http.MethodGet, "/quote?service_id=abc", "", nil).Code)
}

func TestRouter_BookingFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	provider := srv.login(t, "jardel@barber.com", "123")
	other := srv.login(t, "caio@barber.com", "123")
	customer := srv.login(t, "joao@gmail.com", "123")

	path := "/providers/2/availability/2025-06-01"
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPut, path, "", map[string]any{"hours": []string{"08:00"}}).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPut, path, other, map[string]any{"hours": []string{"08:00"}}).Code)

	rec := srv.do(t, http.MethodPut, path, provider, map[string]any{"start": "08:00", "end": "11:00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"08:00", "09:00", "10:00"}, decode[availabilityWriteResponse](t, rec).Hours)

	hours := decode[slotDTO](t, srv.do(t, http.MethodGet, path+"/hours", "", nil))
	assert.Equal(t, []string{"08:00", "09:00", "10:00"}, hours.Hours)

	booking := map[string]any{"provider_id": 2, "date": "2025-06-01", "time": "09:00", "service_ids": []int64{201, 203}}
	rec = srv.do(t, http.MethodPost, "/appointments", customer, booking)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[bookingResponse](t, rec)
	require.Len(t, created.Appointments, 2)
	assert.NotEmpty(t, created.BookingRef)
	assert.Equal(t, "Scheduled", created.Appointments[0].Status)

	hours = decode[slotDTO](t, srv.do(t, http.MethodGet, path+"/hours", "", nil))
	assert.Equal(t, []string{"08:00", "10:00"}, hours.Hours)

	rec = srv.do(t, http.MethodPost, "/appointments", customer, booking)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SLOT_UNAVAILABLE", decode[errorResponse](t, rec).ErrorCode)

	// Providers cannot book as customers.
	rec = srv.do(t, http.MethodPost, "/appointments", other, map[string]any{"provider_id": 2, "date": "2025-06-01", "time": "08:00", "service_ids": []int64{201}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodDelete, path, provider, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := decode[availabilityWriteResponse](t, rec)
	assert.Empty(t, cleared.Hours)
	assert.Len(t, cleared.Orphaned, 2)

	dates := decode[map[string]any](t, srv.do(t, http.MethodGet, "/providers/2/dates", "", nil))
	assert.Equal(t, []any{"2025-05-24", "2025-05-25"}, dates["dates"])
}

func TestRouter_AvailabilityErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/providers/abc/availability", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/providers/42/availability", "", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, srv.do(t, http.MethodGet, "/providers/2/availability/June/hours", "", nil).Code)

	slots := decode[[]slotDTO](t, srv.do(t, http.MethodGet, "/providers/3/availability", "", nil))
	assert.Len(t, slots, 2)

	provider := srv.login(t, "caio@barber.com", "123")
	rec := srv.do(t, http.MethodPut, "/providers/3/availability/2025-06-01", provider, map[string]any{"hours": []string{"9am"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Errors, "hours")
}

func TestRouter_AppointmentListingScope(t *testing.T) {
	srv := newTestServer(t, nil)
	customer := srv.login(t, "joao@gmail.com", "123")
	provider := srv.login(t, "caio@barber.com", "123")

	mine := decode[[]appointmentDTO](t, srv.do(t, http.MethodGet, "/appointments", customer, nil))
	assert.Len(t, mine, 2)

	scheduled := decode[[]appointmentDTO](t, srv.do(t, http.MethodGet, "/appointments?status=Scheduled", customer, nil))
	require.Len(t, scheduled, 1)
	assert.Equal(t, int64(301), scheduled[0].ID)

	agenda := decode[[]appointmentDTO](t, srv.do(t, http.MethodGet, "/appointments", provider, nil))
	require.Len(t, agenda, 1)
	assert.Equal(t, int64(302), agenda[0].ID)

	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/appointments?customer_id=4", customer, nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, srv.do(t, http.MethodGet, "/appointments?status=Pending", customer, nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, srv.do(t, http.MethodGet, "/appointments?provider_id=x", customer, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/appointments", "", nil).Code)
}

func TestRouter_RateLimitsSignIn(t *testing.T) {
	srv := newTestServer(t, NewRateLimiter(0.001, 2))
	body := map[string]string{"email": "joao@gmail.com", "password": "wrong"}

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/sessions", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/sessions", "", body).Code)

	rec := srv.do(t, http.MethodPost, "/sessions", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decode[errorResponse](t, rec).ErrorCode)

	// Catalog reads are not limited.
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/providers", "", nil).Code)
}
