package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/freewebtopdf/propmerge/internal/domain"
)

// SessionCookie names the cookie carrying the resolution session id
const SessionCookie = "propmerge_session"

// SessionHeader carries the resolution session id for clients without cookies
const SessionHeader = "X-Session-ID"

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity   int
	tokens     float64
	refillRate int // tokens per second
	lastRefill time.Time
	mutex      sync.Mutex
}

// NewTokenBucket creates a full bucket
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow takes one token if available
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed*float64(tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

type limit struct {
	capacity   int
	refillRate int
}

// RateLimiter keeps one bucket per client and endpoint
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex

	defaults       limit
	endpointLimits map[string]limit
}

// NewRateLimiter creates a limiter allowing rps requests per second with bursts of burst.
// Writes into merged outputs get half the budget of read endpoints.
func NewRateLimiter(rps, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets:        make(map[string]*TokenBucket),
		defaults:       limit{capacity: burst, refillRate: rps},
		endpointLimits: make(map[string]limit),
	}

	rl.endpointLimits["/v1/conflicts/resolve"] = limit{capacity: max(burst/2, 1), refillRate: max(rps/2, 1)}
	rl.endpointLimits["/health"] = limit{capacity: 20, refillRate: 2}

	return rl
}

func (rl *RateLimiter) getBucket(clientID, endpoint string) *TokenBucket {
	key := clientID + ":" + endpoint

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()
	if exists {
		return bucket
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := rl.buckets[key]; exists {
		return bucket
	}

	l, ok := rl.endpointLimits[endpoint]
	if !ok {
		l = rl.defaults
	}
	bucket = NewTokenBucket(l.capacity, l.refillRate)
	rl.buckets[key] = bucket
	return bucket
}

// clientID prefers the resolution session over the remote address
func (rl *RateLimiter) clientID(c *fiber.Ctx) string {
	if id := c.Get(SessionHeader); id != "" {
		return "session:" + id
	}
	if id := c.Cookies(SessionCookie); id != "" {
		return "session:" + id
	}
	return "ip:" + c.IP()
}

// Middleware returns a Fiber middleware rejecting requests over the limit with 429
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := rl.clientID(c)
		endpoint := c.Path()

		if !rl.getBucket(clientID, endpoint).Allow() {
			appErr := domain.NewAppError(
				domain.ErrRateLimit,
				"Rate limit exceeded",
				429,
				map[string]any{
					"endpoint":    endpoint,
					"retry_after": "1",
				},
			).WithContext(c.Context(), "rate_limit")

			c.Set("Retry-After", "1")
			c.Set("X-RateLimit-Remaining", "0")

			return c.Status(appErr.StatusCode).JSON(map[string]any{
				"status":  "error",
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.defaults.capacity))
		return c.Next()
	}
}

// CleanupOldBuckets removes buckets unused for longer than idle
func (rl *RateLimiter) CleanupOldBuckets(idle time.Duration) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	removed := 0
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		unused := now.Sub(bucket.lastRefill)
		bucket.mutex.Unlock()
		if unused > idle {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine drops idle buckets every ten minutes until stop is called
func (rl *RateLimiter) StartCleanupRoutine() (stop func()) {
	ticker := time.NewTicker(10 * time.Minute)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				rl.CleanupOldBuckets(time.Hour)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// ActiveBuckets returns the number of tracked client/endpoint pairs
func (rl *RateLimiter) ActiveBuckets() int {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()
	return len(rl.buckets)
}
