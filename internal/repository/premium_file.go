package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/pairing-relay-go/internal/model"
)

// premiumFileEntry is the on-disk shape: usedAt is unix milliseconds.
type premiumFileEntry struct {
	Code     string `json:"code"`
	Used     bool   `json:"used"`
	UsedAt   *int64 `json:"usedAt,omitempty"`
	Duration int    `json:"duration"`
}

func (e premiumFileEntry) toModel() *model.PremiumCode {
	pc := &model.PremiumCode{
		Code:         e.Code,
		Used:         e.Used,
		DurationDays: e.Duration,
	}
	if e.UsedAt != nil {
		t := time.UnixMilli(*e.UsedAt)
		pc.UsedAt = &t
	}
	return pc
}

// FilePremiumCodeRepository keeps premium codes in a JSON array file. All
// access goes through one mutex and writes replace the file atomically.
type FilePremiumCodeRepository struct {
	mu   sync.Mutex
	path string
}

var _ PremiumCodeRepository = (*FilePremiumCodeRepository)(nil)

func NewFilePremiumCodeRepository(path string) *FilePremiumCodeRepository {
	return &FilePremiumCodeRepository{path: path}
}

func (r *FilePremiumCodeRepository) Find(_ context.Context, code string) (*model.PremiumCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Code == code {
			return e.toModel(), nil
		}
	}
	return nil, nil
}

func (r *FilePremiumCodeRepository) Redeem(_ context.Context, code string, now time.Time) (*model.PremiumCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].Code != code {
			continue
		}
		if entries[i].Used {
			return nil, ErrPremiumCodeUsed
		}
		usedAt := now.UnixMilli()
		entries[i].Used = true
		entries[i].UsedAt = &usedAt
		if err := r.store(entries); err != nil {
			return nil, err
		}
		return entries[i].toModel(), nil
	}
	return nil, ErrPremiumCodeNotFound
}

func (r *FilePremiumCodeRepository) load() ([]premiumFileEntry, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", r.path).Msg("premium codes file missing, treating as empty")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read premium codes: %w", err)
	}

	var entries []premiumFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode premium codes: %w", err)
	}
	return entries, nil
}

func (r *FilePremiumCodeRepository) store(entries []premiumFileEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode premium codes: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".premium-codes-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace premium codes: %w", err)
	}
	return nil
}
