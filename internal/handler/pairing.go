package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/pairing-relay-go/internal/audit"
	apperrors "github.com/openclaw/pairing-relay-go/internal/errors"
	"github.com/openclaw/pairing-relay-go/internal/httputil"
	"github.com/openclaw/pairing-relay-go/internal/model"
	"github.com/openclaw/pairing-relay-go/internal/service"
	"github.com/openclaw/pairing-relay-go/internal/util"
)

type PairingHandler struct {
	registry *service.Registry
	status   *service.StatusService
}

func NewPairingHandler(registry *service.Registry, status *service.StatusService) *PairingHandler {
	return &PairingHandler{
		registry: registry,
		status:   status,
	}
}

type generateRequest struct {
	UserID    string `json:"userId"`
	IsPremium bool   `json:"isPremium"`
}

type generateResponse struct {
	Success     bool   `json:"success"`
	PairingCode string `json:"pairingCode"`
	ExpiresIn   int    `json:"expiresIn"`
}

// POST /api/generate-pairing-code
func (h *PairingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteFailure(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if req.UserID == "" {
		httputil.WriteFailure(w, apperrors.MissingRequired("userId"))
		return
	}
	if !util.IsValidIdentifier(req.UserID) {
		httputil.WriteFailure(w, apperrors.InvalidInput("userId", "must be 1-128 printable characters"))
		return
	}

	rec, err := h.registry.Create(req.UserID, req.IsPremium)
	if err != nil {
		log.Error().Err(err).Str("userId", req.UserID).Msg("failed to create pairing code")
		httputil.WriteFailure(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventCodeGenerate,
		UserID: req.UserID,
		Details: map[string]interface{}{
			"code":    util.MaskCode(rec.Code),
			"premium": rec.IsPremiumRequest,
		},
	})

	writeJSON(w, http.StatusOK, generateResponse{
		Success:     true,
		PairingCode: rec.Code,
		ExpiresIn:   int(h.registry.TTL().Seconds()),
	})
}

type verifyRequest struct {
	PairingCode string `json:"pairingCode"`
	DeviceID    string `json:"deviceId"`
}

// POST /api/verify-pairing-code
func (h *PairingHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteFailure(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if req.PairingCode == "" {
		httputil.WriteFailure(w, apperrors.MissingRequired("pairingCode"))
		return
	}
	if req.DeviceID == "" {
		httputil.WriteFailure(w, apperrors.MissingRequired("deviceId"))
		return
	}
	if !util.IsValidIdentifier(req.DeviceID) {
		httputil.WriteFailure(w, apperrors.InvalidInput("deviceId", "must be 1-128 printable characters"))
		return
	}

	code := service.NormalizeCode(req.PairingCode)
	if !service.ValidCode(code) {
		h.rejectRedeem(w, r, code, req.DeviceID, apperrors.PairingNotFound())
		return
	}

	rec, err := h.registry.Redeem(code, req.DeviceID)
	if err != nil {
		h.rejectRedeem(w, r, code, req.DeviceID, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventCodeRedeem,
		UserID:   rec.OwnerID,
		DeviceID: req.DeviceID,
		Details: map[string]interface{}{
			"code":    util.MaskCode(rec.Code),
			"premium": rec.IsPremiumRequest,
		},
	})

	writeJSON(w, http.StatusOK, model.NewPairingEvent(*rec))
}

// rejectRedeem logs the precise reason and answers with the external form:
// unknown and expired codes look the same to the caller.
func (h *PairingHandler) rejectRedeem(w http.ResponseWriter, r *http.Request, code, deviceID string, err error) {
	reason := apperrors.GetCode(err)

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventCodeRedeemRejected,
		DeviceID: deviceID,
		Details: map[string]interface{}{
			"code":   util.MaskCode(code),
			"reason": string(reason),
		},
	})

	switch reason {
	case apperrors.ErrCodePairingNotFound, apperrors.ErrCodePairingExpired:
		httputil.WriteFailure(w, apperrors.InvalidPairingCode())
	default:
		httputil.WriteFailure(w, err)
	}
}

// GET /api/pairing-status/{code}
func (h *PairingHandler) Status(w http.ResponseWriter, r *http.Request) {
	view := h.status.Lookup(chi.URLParam(r, "code"))
	writeJSON(w, http.StatusOK, toStatusResponse(view))
}
