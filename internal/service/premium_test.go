package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openclaw/pairing-relay-go/internal/errors"
	"github.com/openclaw/pairing-relay-go/internal/model"
	"github.com/openclaw/pairing-relay-go/internal/repository"
)

type stubPremiumRepo struct {
	codes map[string]*model.PremiumCode
	err   error
	calls int
}

func (r *stubPremiumRepo) Find(_ context.Context, code string) (*model.PremiumCode, error) {
	return r.codes[code], r.err
}

func (r *stubPremiumRepo) Redeem(_ context.Context, code string, now time.Time) (*model.PremiumCode, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	pc, ok := r.codes[code]
	if !ok {
		return nil, repository.ErrPremiumCodeNotFound
	}
	if pc.Used {
		return nil, repository.ErrPremiumCodeUsed
	}
	pc.Used = true
	pc.UsedAt = &now
	return pc, nil
}

func TestPremiumService_Validate(t *testing.T) {
	ctx := context.Background()
	newRepo := func() *stubPremiumRepo {
		return &stubPremiumRepo{codes: map[string]*model.PremiumCode{
			"PREMIUM-30": {Code: "PREMIUM-30", DurationDays: 30},
		}}
	}

	t.Run("redeems unused code", func(t *testing.T) {
		svc := NewPremiumService(newRepo())

		pc, err := svc.Validate(ctx, " PREMIUM-30 ")

		require.NoError(t, err)
		assert.Equal(t, 30, pc.DurationDays)
		assert.True(t, pc.Used)
	})

	t.Run("second redeem is rejected", func(t *testing.T) {
		svc := NewPremiumService(newRepo())
		_, err := svc.Validate(ctx, "PREMIUM-30")
		require.NoError(t, err)

		_, err = svc.Validate(ctx, "PREMIUM-30")

		assert.Equal(t, apperrors.ErrCodePremiumCodeUsed, apperrors.GetCode(err))
	})

	t.Run("unknown code", func(t *testing.T) {
		svc := NewPremiumService(newRepo())

		_, err := svc.Validate(ctx, "NOPE")

		assert.Equal(t, apperrors.ErrCodeInvalidPremiumCode, apperrors.GetCode(err))
	})

	t.Run("empty code never reaches the store", func(t *testing.T) {
		repo := newRepo()
		svc := NewPremiumService(repo)

		_, err := svc.Validate(ctx, "   ")

		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
		assert.Equal(t, 0, repo.calls)
	})

	t.Run("store failure is a database error", func(t *testing.T) {
		repo := newRepo()
		repo.err = errors.New("disk on fire")
		svc := NewPremiumService(repo)

		_, err := svc.Validate(ctx, "PREMIUM-30")

		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
	})
}
