package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/pairing-relay-go/internal/config"
	apperrors "github.com/openclaw/pairing-relay-go/internal/errors"
	"github.com/openclaw/pairing-relay-go/internal/httputil"
	"github.com/openclaw/pairing-relay-go/internal/model"
	"github.com/openclaw/pairing-relay-go/internal/notify"
	"github.com/openclaw/pairing-relay-go/internal/service"
	"github.com/openclaw/pairing-relay-go/internal/sse"
)

const (
	eventConnected      = "connected"
	eventPairingSuccess = "pairing-success"
	eventPairingExpired = "pairing-expired"
)

// EventsHandler streams the fate of one code over SSE. The stream ends after
// pairing-success or pairing-expired.
type EventsHandler struct {
	hub       *notify.Hub
	status    *service.StatusService
	heartbeat time.Duration
}

func NewEventsHandler(hub *notify.Hub, status *service.StatusService) *EventsHandler {
	return &EventsHandler{
		hub:       hub,
		status:    status,
		heartbeat: config.SSEHeartbeatInterval,
	}
}

type statusEvent struct {
	Code   string              `json:"code"`
	Status model.PairingStatus `json:"status"`
}

// GET /api/pairing-events/{code}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := service.NormalizeCode(chi.URLParam(r, "code"))
	if !service.ValidCode(code) {
		httputil.WriteFailure(w, apperrors.InvalidPairingCode())
		return
	}

	// Subscribe before reading status so a redeem in between is not lost.
	sub := h.hub.Subscribe(code)
	defer h.hub.Unsubscribe(sub)

	stream, err := sse.Open(w)
	if err != nil {
		httputil.WriteFailure(w, apperrors.Internal("Streaming not supported"))
		return
	}

	view := h.status.Lookup(code)
	if err := stream.Send(eventConnected, statusEvent{Code: code, Status: view.Status}); err != nil {
		return
	}

	log.Info().
		Str("code", code).
		Str("subscriptionId", sub.ID).
		Str("status", string(view.Status)).
		Msg("sse observer connected")

	if done := h.sendTerminal(stream, code, view); done {
		return
	}

	expiry := time.NewTimer(time.Until(*view.ExpiresAt))
	defer expiry.Stop()
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("code", code).Msg("sse observer went away")
			return

		case <-sub.Done:
			return

		case ev := <-sub.Events:
			if err := stream.Send(eventPairingSuccess, ev); err != nil {
				log.Debug().Err(err).Str("code", code).Msg("failed to send pairing event")
			}
			return

		case <-expiry.C:
			// the redeem may have won the race with the deadline
			if h.sendTerminal(stream, code, h.status.Lookup(code)) {
				return
			}
			expiry.Reset(time.Second)

		case <-heartbeat.C:
			if err := stream.Ping(); err != nil {
				log.Debug().Str("code", code).Msg("heartbeat failed, closing stream")
				return
			}
		}
	}
}

// sendTerminal reports a code that can no longer change. It returns false for
// a pending code.
func (h *EventsHandler) sendTerminal(stream *sse.Stream, code string, view service.StatusView) bool {
	switch {
	case view.Status == model.PairingStatusPaired:
		_ = stream.Send(eventPairingSuccess, pairingEventFromView(code, view))
		return true
	case view.Active() && view.ExpiresAt != nil:
		return false
	default:
		_ = stream.Send(eventPairingExpired, statusEvent{Code: code, Status: model.PairingStatusExpired})
		return true
	}
}
