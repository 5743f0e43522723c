package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/pairing-relay-go/internal/config"
	"github.com/openclaw/pairing-relay-go/internal/notify"
	"github.com/openclaw/pairing-relay-go/internal/repository"
	"github.com/openclaw/pairing-relay-go/internal/service"
)

func newTestRouter(t *testing.T, ratePerMin int) http.Handler {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>pair</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "premium.html"), []byte("<html>premium</html>"), 0o644))
	premiumFile := filepath.Join(dir, "premium-codes.json")
	require.NoError(t, os.WriteFile(premiumFile, []byte(`[{"code":"P30","used":false,"duration":30}]`), 0o600))

	cfg := &config.Config{
		AppEnv:          "development",
		StaticDir:       dir,
		RateLimitPerMin: ratePerMin,
	}
	hub := notify.NewHub()
	t.Cleanup(hub.Close)
	registry := service.NewRegistry(service.NewCodeGenerator(6), hub, service.RegistryOptions{})

	return newRouter(routerDeps{
		cfg:      cfg,
		registry: registry,
		hub:      hub,
		status:   service.NewStatusService(registry),
		premium:  service.NewPremiumService(repository.NewFilePremiumCodeRepository(premiumFile)),
		limiter:  service.NewLocalLimiter(),
	})
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:4000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t, 30)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK, `"status":"ok"`},
		{"index page", http.MethodGet, "/", "", http.StatusOK, "pair"},
		{"premium page", http.MethodGet, "/premium", "", http.StatusOK, "premium"},
		{"generate", http.MethodPost, "/api/generate-pairing-code", `{"userId":"U1"}`, http.StatusOK, `"pairingCode"`},
		{"status of unknown code", http.MethodGet, "/api/pairing-status/ABC234", "", http.StatusOK, `"expired"`},
		{"verify unknown code", http.MethodPost, "/api/verify-pairing-code", `{"pairingCode":"ABC234","deviceId":"D1"}`, http.StatusBadRequest, "INVALID_PAIRING_CODE"},
		{"premium", http.MethodPost, "/api/validate-premium-code", `{"premiumCode":"P30"}`, http.StatusOK, `"duration":30`},
		{"unknown api route", http.MethodGet, "/api/nope", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestRouter_RateLimitsGenerate(t *testing.T) {
	router := newTestRouter(t, 2)

	for i := 0; i < 2; i++ {
		rec := serve(router, http.MethodPost, "/api/generate-pairing-code", `{"userId":"U1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(router, http.MethodPost, "/api/generate-pairing-code", `{"userId":"U1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

	// scopes are independent
	rec = serve(router, http.MethodPost, "/api/verify-pairing-code", `{"pairingCode":"ABC234","deviceId":"D1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
