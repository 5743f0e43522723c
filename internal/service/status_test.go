package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/pairing-relay-go/internal/model"
)

func TestStatusService_Lookup(t *testing.T) {
	t.Run("pending code exposes owner and timestamps", func(t *testing.T) {
		reg, _ := newTestRegistry(nil)
		svc := NewStatusService(reg)
		rec, err := reg.Create("U1", true)
		require.NoError(t, err)

		view := svc.Lookup(rec.Code)

		assert.Equal(t, model.PairingStatusPending, view.Status)
		assert.Equal(t, "U1", view.UserID)
		require.NotNil(t, view.Premium)
		assert.True(t, *view.Premium)
		require.NotNil(t, view.CreatedAt)
		assert.Equal(t, rec.CreatedAt, *view.CreatedAt)
		assert.Nil(t, view.PairedAt)
		assert.True(t, view.Active())
	})

	t.Run("normalizes user input", func(t *testing.T) {
		reg, _ := newTestRegistry(nil)
		svc := NewStatusService(reg)
		rec, err := reg.Create("U1", false)
		require.NoError(t, err)

		view := svc.Lookup("  " + toLower(rec.Code) + " ")

		assert.Equal(t, model.PairingStatusPending, view.Status)
	})

	t.Run("malformed code is not found without touching the registry", func(t *testing.T) {
		reg, _ := newTestRegistry(nil)
		svc := NewStatusService(reg)

		assert.Equal(t, model.PairingStatusNotFound, svc.Lookup("not-a-code").Status)
		assert.Equal(t, model.PairingStatusNotFound, svc.Lookup("").Status)
	})

	t.Run("expired code", func(t *testing.T) {
		reg, clock := newTestRegistry(nil)
		svc := NewStatusService(reg)
		rec, err := reg.Create("U1", false)
		require.NoError(t, err)

		clock.Advance(5 * time.Minute)
		view := svc.Lookup(rec.Code)

		assert.Equal(t, model.PairingStatusExpired, view.Status)
		assert.Empty(t, view.UserID)
		assert.False(t, view.Active())
	})

	t.Run("is idempotent", func(t *testing.T) {
		reg, _ := newTestRegistry(nil)
		svc := NewStatusService(reg)
		rec, err := reg.Create("U1", false)
		require.NoError(t, err)

		first := svc.Lookup(rec.Code)
		second := svc.Lookup(rec.Code)

		assert.Equal(t, first, second)
	})
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
