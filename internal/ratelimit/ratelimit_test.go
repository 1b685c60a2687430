package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowRequest_DeniesOverMinuteCeiling(t *testing.T) {
	rl := NewRateLimiter(3, 0, 0, true)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.AllowRequest())
	}
	assert.False(t, rl.AllowRequest())

	// Denied requests must not consume headroom
	stats := rl.GetStats()
	assert.Equal(t, 3, stats.RequestsLastMinute)
	assert.Equal(t, 0, stats.RemainingThisMinute)
}

func TestAllowRequest_DisabledPassesEverything(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1, false)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.AllowRequest())
	}
	assert.False(t, rl.GetStats().Enabled)
}

func TestReset_ClearsAllWindows(t *testing.T) {
	rl := NewRateLimiter(2, 2, 2, true)

	rl.AllowRequest()
	rl.AllowRequest()
	assert.False(t, rl.AllowRequest())

	rl.Reset()
	assert.True(t, rl.AllowRequest())
	stats := rl.GetStats()
	assert.Equal(t, 1, stats.RequestsLastDay)
}
