package model

import (
	"time"
)

type PairingRecord struct {
	Code             string       `json:"code"`
	OwnerID          string       `json:"userId"`
	IsPremiumRequest bool         `json:"premium"`
	State            PairingState `json:"status"`
	CreatedAt        time.Time    `json:"createdAt"`
	ExpiresAt        time.Time    `json:"expiresAt"`
	PairedAt         *time.Time   `json:"pairedAt,omitempty"`
	RedeemerID       *string      `json:"deviceId,omitempty"`
}

// ExpiresIn returns the remaining validity at now, never negative.
func (p *PairingRecord) ExpiresIn(now time.Time) time.Duration {
	d := p.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// PairingEvent is pushed to every observer waiting on a code once it is
// redeemed. It mirrors the redeem success response.
type PairingEvent struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Code     string    `json:"code"`
	User     string    `json:"user"`
	Premium  bool      `json:"premium"`
	DeviceID string    `json:"deviceId"`
	PairedAt time.Time `json:"pairedAt"`
}

const PairingSuccessMessage = "Pairing successful"

func NewPairingEvent(rec PairingRecord) PairingEvent {
	ev := PairingEvent{
		Success: true,
		Message: PairingSuccessMessage,
		Code:    rec.Code,
		User:    rec.OwnerID,
		Premium: rec.IsPremiumRequest,
	}
	if rec.RedeemerID != nil {
		ev.DeviceID = *rec.RedeemerID
	}
	if rec.PairedAt != nil {
		ev.PairedAt = *rec.PairedAt
	}
	return ev
}
