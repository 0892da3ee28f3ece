package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	// 1 token/s with burst 3: the first three pass, the fourth is rejected.
	limiter := NewMemoryLimiter(1, 3)

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow("alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, err := limiter.Allow("alice@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	// Independent keys do not share buckets.
	ok, err = limiter.Allow("bob@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiter_Reset(t *testing.T) {
	limiter := NewMemoryLimiter(1, 1)

	ok, _ := limiter.Allow("alice@example.com")
	assert.True(t, ok)
	ok, _ = limiter.Allow("alice@example.com")
	assert.False(t, ok)

	require.NoError(t, limiter.Reset("alice@example.com"))

	ok, _ = limiter.Allow("alice@example.com")
	assert.True(t, ok)
}
