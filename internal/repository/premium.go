package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openclaw/pairing-relay-go/internal/database"
	"github.com/openclaw/pairing-relay-go/internal/model"
)

var (
	ErrPremiumCodeNotFound = errors.New("premium code not found")
	ErrPremiumCodeUsed     = errors.New("premium code already used")
)

type PremiumCodeRepository interface {
	// Find returns nil, nil when the code does not exist.
	Find(ctx context.Context, code string) (*model.PremiumCode, error)
	// Redeem marks an unused code as used and returns it. It fails with
	// ErrPremiumCodeNotFound or ErrPremiumCodeUsed. Two concurrent redeems
	// of the same code never both succeed.
	Redeem(ctx context.Context, code string, now time.Time) (*model.PremiumCode, error)
}

type premiumCodeRepo struct {
	db database.DBTX
}

func NewPremiumCodeRepository(db *sqlx.DB) PremiumCodeRepository {
	return &premiumCodeRepo{db: db}
}

func (r *premiumCodeRepo) Find(ctx context.Context, code string) (*model.PremiumCode, error) {
	var pc model.PremiumCode
	err := r.db.GetContext(ctx, &pc, `
		SELECT code, used, used_at, duration_days, created_at
		FROM premium_codes WHERE code = $1
	`, code)
	return HandleNotFound(&pc, err)
}

func (r *premiumCodeRepo) Redeem(ctx context.Context, code string, now time.Time) (*model.PremiumCode, error) {
	var pc model.PremiumCode
	err := r.db.GetContext(ctx, &pc, `
		UPDATE premium_codes
		SET used = TRUE, used_at = $2
		WHERE code = $1 AND used = FALSE
		RETURNING code, used, used_at, duration_days, created_at
	`, code, now)
	if err == nil {
		return &pc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	existing, err := r.Find(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrPremiumCodeNotFound
	}
	return nil, ErrPremiumCodeUsed
}
