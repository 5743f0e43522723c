package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/pairing-relay-go/internal/audit"
	apperrors "github.com/openclaw/pairing-relay-go/internal/errors"
	"github.com/openclaw/pairing-relay-go/internal/httputil"
	"github.com/openclaw/pairing-relay-go/internal/service"
	"github.com/openclaw/pairing-relay-go/internal/util"
)

const premiumValidatedMessage = "Premium code validated"

type PremiumHandler struct {
	premium *service.PremiumService
}

func NewPremiumHandler(premium *service.PremiumService) *PremiumHandler {
	return &PremiumHandler{premium: premium}
}

// POST /api/validate-premium-code
func (h *PremiumHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PremiumCode string `json:"premiumCode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteFailure(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	pc, err := h.premium.Validate(r.Context(), req.PremiumCode)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeDatabase {
			log.Error().Err(err).Msg("premium code store failed")
		} else {
			audit.LogFromRequest(r, audit.Event{
				Type: audit.EventPremiumRejected,
				Details: map[string]interface{}{
					"code":   util.MaskCode(req.PremiumCode),
					"reason": string(apperrors.GetCode(err)),
				},
			})
		}
		httputil.WriteFailure(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventPremiumRedeem,
		Details: map[string]interface{}{
			"code":         util.MaskCode(pc.Code),
			"durationDays": pc.DurationDays,
		},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  premiumValidatedMessage,
		"duration": pc.DurationDays,
	})
}
