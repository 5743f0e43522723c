package service

import (
	"time"

	"github.com/openclaw/pairing-relay-go/internal/model"
)

// StatusView is what polling clients see for a code.
type StatusView struct {
	Status    model.PairingStatus
	UserID    string
	Premium   *bool
	CreatedAt *time.Time
	ExpiresAt *time.Time
	PairedAt  *time.Time
	DeviceID  string
}

// StatusService is the read path used by pollers and by push transports
// that need to catch up after subscribing.
type StatusService struct {
	registry *Registry
}

func NewStatusService(registry *Registry) *StatusService {
	return &StatusService{registry: registry}
}

// Lookup is idempotent. Its only side effect is the lazy expiry of a pending
// record whose deadline has passed.
func (s *StatusService) Lookup(code string) StatusView {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return StatusView{Status: model.PairingStatusNotFound}
	}

	rec, err := s.registry.Get(code)
	if err != nil {
		// Get already flipped the record when it was due
		return StatusView{Status: s.registry.Status(code)}
	}

	premium := rec.IsPremiumRequest
	view := StatusView{
		Status:    model.PairingStatus(rec.State),
		UserID:    rec.OwnerID,
		Premium:   &premium,
		CreatedAt: &rec.CreatedAt,
		ExpiresAt: &rec.ExpiresAt,
		PairedAt:  rec.PairedAt,
	}
	if rec.RedeemerID != nil {
		view.DeviceID = *rec.RedeemerID
	}
	return view
}

// Active reports whether the code can still change state.
func (v StatusView) Active() bool {
	return v.Status == model.PairingStatusPending
}
