package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/pairing-relay-go/internal/errors"
	"github.com/openclaw/pairing-relay-go/internal/model"
	"github.com/openclaw/pairing-relay-go/internal/util"
)

const (
	defaultPairingTTL       = 300 * time.Second
	defaultPairingRetention = 60 * time.Second
)

// Notifier receives every record that has just transitioned to paired.
type Notifier interface {
	Publish(code string, rec model.PairingRecord) int
}

type RegistryOptions struct {
	TTL       time.Duration
	Retention time.Duration
	Now       func() time.Time
}

// recordEntry holds one record. mu guards rec; the registry map lock only
// guards which entries exist.
type recordEntry struct {
	mu  sync.Mutex
	rec model.PairingRecord
}

// expireIfDue flips a pending record past its deadline to expired. Callers
// hold e.mu.
func (e *recordEntry) expireIfDue(now time.Time) bool {
	if !e.rec.State.Terminal() && !now.Before(e.rec.ExpiresAt) {
		e.rec.State = model.PairingStateExpired
		return true
	}
	return false
}

// live reports whether the code still blocks reuse. Callers hold e.mu.
func (e *recordEntry) live(now time.Time) bool {
	return e.rec.State != model.PairingStateExpired && now.Before(e.rec.ExpiresAt)
}

// Registry is the in-memory store of pairing records and the only place
// their state changes.
type Registry struct {
	gen       *CodeGenerator
	notifier  Notifier
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	records map[string]*recordEntry
}

func NewRegistry(gen *CodeGenerator, notifier Notifier, opts RegistryOptions) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = defaultPairingTTL
	}
	if opts.Retention < 0 {
		opts.Retention = defaultPairingRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		gen:       gen,
		notifier:  notifier,
		ttl:       opts.TTL,
		retention: opts.Retention,
		now:       opts.Now,
		records:   make(map[string]*recordEntry),
	}
}

func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Create allocates a fresh code and stores a pending record for ownerID.
func (r *Registry) Create(ownerID string, isPremium bool) (*model.PairingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	code, err := r.gen.Generate(func(code string) bool {
		entry, ok := r.records[code]
		if !ok {
			return false
		}
		entry.mu.Lock()
		defer entry.mu.Unlock()
		return entry.live(now)
	})
	if err != nil {
		log.Error().Err(err).Int("records", len(r.records)).Msg("pairing code allocation failed")
		return nil, fmt.Errorf("allocate pairing code: %w", err)
	}

	entry := &recordEntry{rec: model.PairingRecord{
		Code:             code,
		OwnerID:          ownerID,
		IsPremiumRequest: isPremium,
		State:            model.PairingStatePending,
		CreatedAt:        now,
		ExpiresAt:        now.Add(r.ttl),
	}}
	r.records[code] = entry

	log.Info().
		Str("code", code).
		Str("userId", ownerID).
		Bool("premium", isPremium).
		Time("expiresAt", entry.rec.ExpiresAt).
		Msg("pairing code created")

	rec := entry.rec
	return &rec, nil
}

func (r *Registry) lookup(code string) *recordEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[code]
}

// Get returns a copy of the record while it is within its deadline.
func (r *Registry) Get(code string) (*model.PairingRecord, error) {
	entry := r.lookup(code)
	if entry == nil {
		return nil, apperrors.PairingNotFound()
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if entry.expireIfDue(now) {
		log.Debug().Str("code", code).Msg("pairing code expired on read")
	}
	if entry.rec.State == model.PairingStateExpired {
		return nil, apperrors.PairingExpired()
	}
	if !now.Before(entry.rec.ExpiresAt) {
		return nil, apperrors.PairingNotFound()
	}

	rec := entry.rec
	return &rec, nil
}

// Redeem pairs a pending code with redeemerID. At most one caller per code
// ever succeeds; the others get AlreadyPaired.
func (r *Registry) Redeem(code, redeemerID string) (*model.PairingRecord, error) {
	entry := r.lookup(code)
	if entry == nil {
		log.Warn().Str("code", util.MaskCode(code)).Msg("redeem: pairing code not found")
		return nil, apperrors.PairingNotFound()
	}

	entry.mu.Lock()
	now := r.now()
	entry.expireIfDue(now)

	switch entry.rec.State {
	case model.PairingStatePaired:
		entry.mu.Unlock()
		log.Warn().Str("code", util.MaskCode(code)).Str("deviceId", redeemerID).Msg("redeem: pairing code already used")
		return nil, apperrors.AlreadyPaired()
	case model.PairingStateExpired:
		entry.mu.Unlock()
		log.Warn().Str("code", util.MaskCode(code)).Msg("redeem: pairing code expired")
		return nil, apperrors.PairingExpired()
	}

	pairedAt := now
	redeemer := redeemerID
	entry.rec.State = model.PairingStatePaired
	entry.rec.PairedAt = &pairedAt
	entry.rec.RedeemerID = &redeemer
	rec := entry.rec
	entry.mu.Unlock()

	delivered := 0
	if r.notifier != nil {
		delivered = r.notifier.Publish(code, rec)
	}

	log.Info().
		Str("code", code).
		Str("userId", rec.OwnerID).
		Str("deviceId", redeemerID).
		Int("notified", delivered).
		Msg("pairing successful")

	return &rec, nil
}

// Status projects the current state of code without exposing the record.
func (r *Registry) Status(code string) model.PairingStatus {
	entry := r.lookup(code)
	if entry == nil {
		return model.PairingStatusNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	entry.expireIfDue(now)
	switch {
	case entry.rec.State == model.PairingStateExpired:
		return model.PairingStatusExpired
	case !now.Before(entry.rec.ExpiresAt):
		return model.PairingStatusNotFound
	case entry.rec.State == model.PairingStatePaired:
		return model.PairingStatusPaired
	default:
		return model.PairingStatusPending
	}
}

// Sweep expires pending records past their deadline and evicts records
// whose deadline lies more than the retention period in the past. It
// returns expirations plus evictions.
func (r *Registry) Sweep(ctx context.Context) (int64, error) {
	r.mu.RLock()
	entries := make([]*recordEntry, 0, len(r.records))
	for _, entry := range r.records {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	var expired int64
	var evict []string
	for i, entry := range entries {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return expired, err
			}
		}

		entry.mu.Lock()
		now := r.now()
		if entry.expireIfDue(now) {
			expired++
		}
		if now.Sub(entry.rec.ExpiresAt) >= r.retention {
			evict = append(evict, entry.rec.Code)
		}
		entry.mu.Unlock()
	}

	var evicted int64
	if len(evict) > 0 {
		r.mu.Lock()
		now := r.now()
		for _, code := range evict {
			entry, ok := r.records[code]
			if !ok {
				continue
			}
			// the slot may have been reused by Create since the scan
			entry.mu.Lock()
			due := now.Sub(entry.rec.ExpiresAt) >= r.retention
			entry.mu.Unlock()
			if due {
				delete(r.records, code)
				evicted++
			}
		}
		r.mu.Unlock()
	}

	if expired > 0 || evicted > 0 {
		log.Debug().
			Int64("expired", expired).
			Int64("evicted", evicted).
			Msg("pairing registry swept")
	}

	return expired + evicted, nil
}

// Len returns the number of records currently held, including terminal
// records awaiting eviction.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
