package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/pairing-relay-go/internal/errors"
	"github.com/openclaw/pairing-relay-go/internal/model"
	"github.com/openclaw/pairing-relay-go/internal/repository"
	"github.com/openclaw/pairing-relay-go/internal/util"
)

// PremiumService redeems one-shot premium codes. It is independent of the
// pairing state machine.
type PremiumService struct {
	repo repository.PremiumCodeRepository
	now  func() time.Time
}

func NewPremiumService(repo repository.PremiumCodeRepository) *PremiumService {
	return &PremiumService{repo: repo, now: time.Now}
}

// Validate consumes code and returns it with its duration in days.
func (s *PremiumService) Validate(ctx context.Context, code string) (*model.PremiumCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.MissingRequired("premiumCode")
	}
	if !util.IsValidIdentifier(code) {
		return nil, apperrors.InvalidPremiumCode()
	}

	pc, err := s.repo.Redeem(ctx, code, s.now())
	switch {
	case err == nil:
		log.Info().
			Str("code", util.MaskCode(code)).
			Int("durationDays", pc.DurationDays).
			Msg("premium code redeemed")
		return pc, nil
	case errors.Is(err, repository.ErrPremiumCodeNotFound):
		return nil, apperrors.InvalidPremiumCode()
	case errors.Is(err, repository.ErrPremiumCodeUsed):
		return nil, apperrors.PremiumCodeUsed()
	default:
		return nil, apperrors.Database(err)
	}
}
