package ratelimit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserLimiterBurstThenDeny(t *testing.T) {
	limiter := NewUserLimiter(1, 3)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(user), "request %d should fit in the burst", i+1)
	}
	assert.False(t, limiter.Allow(user), "burst exhausted")
}

func TestUserLimiterPerUserBuckets(t *testing.T) {
	limiter := NewUserLimiter(1, 1)
	alice := uuid.New()
	bob := uuid.New()

	assert.True(t, limiter.Allow(alice))
	assert.False(t, limiter.Allow(alice))
	assert.True(t, limiter.Allow(bob), "each user gets a separate bucket")
}

func TestUserLimiterCleanup(t *testing.T) {
	limiter := NewUserLimiter(1, 1)
	idle := uuid.New()
	active := uuid.New()

	limiter.Allow(idle)
	limiter.Allow(active)

	limiter.mu.Lock()
	limiter.limiters[idle].lastSeen = time.Now().Add(-evictAfter - time.Minute)
	limiter.mu.Unlock()

	limiter.Cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.limiters, idle)
	assert.Contains(t, limiter.limiters, active)
}
