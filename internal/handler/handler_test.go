package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/pairing-relay-go/internal/notify"
	"github.com/openclaw/pairing-relay-go/internal/service"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	clock    *testClock
	hub      *notify.Hub
	registry *service.Registry
	status   *service.StatusService
	router   chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &testClock{now: time.Now()}
	hub := notify.NewHub()
	registry := service.NewRegistry(service.NewCodeGenerator(6), hub, service.RegistryOptions{
		TTL:       300 * time.Second,
		Retention: 60 * time.Second,
		Now:       clock.Now,
	})
	status := service.NewStatusService(registry)

	pairing := NewPairingHandler(registry, status)
	r := chi.NewRouter()
	r.Post("/api/generate-pairing-code", pairing.Generate)
	r.Post("/api/verify-pairing-code", pairing.Verify)
	r.Get("/api/pairing-status/{code}", pairing.Status)
	r.Method(http.MethodGet, "/api/pairing-events/{code}", NewEventsHandler(hub, status))
	r.Method(http.MethodGet, "/ws", NewSocketHandler(hub, status, nil))
	r.Method(http.MethodGet, "/health", NewHealthHandler(registry, hub))

	t.Cleanup(hub.Close)

	return &testEnv{
		clock:    clock,
		hub:      hub,
		registry: registry,
		status:   status,
		router:   r,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) generate(t *testing.T, userID string, premium bool) string {
	t.Helper()
	body, err := json.Marshal(map[string]any{"userId": userID, "isPremium": premium})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, "/api/generate-pairing-code", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.PairingCode
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
