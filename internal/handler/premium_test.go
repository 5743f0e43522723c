package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/pairing-relay-go/internal/repository"
	"github.com/openclaw/pairing-relay-go/internal/service"
)

func newPremiumRouter(t *testing.T) http.Handler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "premium-codes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"code":"PREMIUM-30","used":false,"duration":30}]`), 0o600))

	h := NewPremiumHandler(service.NewPremiumService(repository.NewFilePremiumCodeRepository(path)))
	return http.HandlerFunc(h.Validate)
}

func postPremium(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/validate-premium-code", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPremiumHandler_Validate(t *testing.T) {
	t.Run("redeems once", func(t *testing.T) {
		h := newPremiumRouter(t)

		first := postPremium(t, h, `{"premiumCode":"PREMIUM-30"}`)
		second := postPremium(t, h, `{"premiumCode":"PREMIUM-30"}`)

		assert.Equal(t, http.StatusOK, first.Code)
		assert.JSONEq(t, `{"success":true,"message":"Premium code validated","duration":30}`, first.Body.String())

		assert.Equal(t, http.StatusConflict, second.Code)
		body := decodeBody(t, second)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "PREMIUM_CODE_USED", body["code"])
	})

	t.Run("unknown code", func(t *testing.T) {
		rec := postPremium(t, newPremiumRouter(t), `{"premiumCode":"NOPE"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_PREMIUM_CODE", decodeBody(t, rec)["code"])
	})

	t.Run("missing code", func(t *testing.T) {
		rec := postPremium(t, newPremiumRouter(t), `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_REQUIRED", decodeBody(t, rec)["code"])
	})

	t.Run("corrupt store is a generic 500", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "premium-codes.json")
		require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o600))
		h := NewPremiumHandler(service.NewPremiumService(repository.NewFilePremiumCodeRepository(path)))

		rec := postPremium(t, http.HandlerFunc(h.Validate), `{"premiumCode":"PREMIUM-30"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "DATABASE_ERROR", body["code"])
		assert.NotContains(t, body["message"], "broken")
	})
}
