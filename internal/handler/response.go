package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/openclaw/pairing-relay-go/internal/httputil"
	"github.com/openclaw/pairing-relay-go/internal/model"
	"github.com/openclaw/pairing-relay-go/internal/service"
)

var errEmptyBody = errors.New("empty body")

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

// statusResponse is the polling body. Codes that cannot change any more are
// reported as expired.
type statusResponse struct {
	Status    model.PairingStatus `json:"status"`
	UserID    string              `json:"userId,omitempty"`
	Premium   *bool               `json:"premium,omitempty"`
	CreatedAt *int64              `json:"createdAt,omitempty"`
}

func toStatusResponse(view service.StatusView) statusResponse {
	switch view.Status {
	case model.PairingStatusPending, model.PairingStatusPaired:
	default:
		return statusResponse{Status: model.PairingStatusExpired}
	}

	resp := statusResponse{
		Status:  view.Status,
		UserID:  view.UserID,
		Premium: view.Premium,
	}
	if view.CreatedAt != nil {
		ms := view.CreatedAt.UnixMilli()
		resp.CreatedAt = &ms
	}
	return resp
}

// pairingEventFromView rebuilds the push payload for an observer that missed
// the publish and learned about the pairing from a status read.
func pairingEventFromView(code string, view service.StatusView) model.PairingEvent {
	ev := model.PairingEvent{
		Success:  true,
		Message:  model.PairingSuccessMessage,
		Code:     code,
		User:     view.UserID,
		DeviceID: view.DeviceID,
	}
	if view.Premium != nil {
		ev.Premium = *view.Premium
	}
	if view.PairedAt != nil {
		ev.PairedAt = *view.PairedAt
	}
	return ev
}
