package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// UserLimiter keeps one token bucket per user for general request
// throttling. Buckets idle past the eviction window are dropped so the map
// does not grow without bound.
type UserLimiter struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*userEntry
	rps      rate.Limit
	burst    int
}

type userEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const evictAfter = 10 * time.Minute

func NewUserLimiter(rps float64, burst int) *UserLimiter {
	return &UserLimiter{
		limiters: make(map[uuid.UUID]*userEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether the user may make a request right now.
func (l *UserLimiter) Allow(userID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[userID]
	if !ok {
		entry = &userEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// Cleanup evicts buckets that have been idle long enough to refill fully.
// Call it periodically from a background goroutine.
func (l *UserLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-evictAfter)
	for id, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, id)
		}
	}
}

// StartLimiter throttles conversation starts per user over a rolling window
// using a Redis counter. Infrastructure failure denies the start: a broken
// limiter must not become an unlimited one.
type StartLimiter struct {
	redis  *redis.Client
	max    int
	window time.Duration
}

func NewStartLimiter(redisClient *redis.Client, max int, window time.Duration) *StartLimiter {
	return &StartLimiter{redis: redisClient, max: max, window: window}
}

// AllowConversationStart increments the user's window counter and denies
// once the cap is reached. The key expires with the window, so the count
// resets on its own.
func (sl *StartLimiter) AllowConversationStart(userID uuid.UUID) error {
	ctx := context.Background()
	key := fmt.Sprintf("careconnect:convstart:%s", userID)

	count, err := sl.redis.Incr(ctx, key).Result()
	if err != nil {
		return apperr.RateLimited("could not verify rate limit, try again later")
	}
	if count == 1 {
		if err := sl.redis.Expire(ctx, key, sl.window).Err(); err != nil {
			return apperr.RateLimited("could not verify rate limit, try again later")
		}
	}
	if count > int64(sl.max) {
		return apperr.RateLimited("too many new conversations, slow down")
	}
	return nil
}
