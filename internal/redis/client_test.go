package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:generate:10.0.0.1", RateLimitKey("generate:10.0.0.1"))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}
