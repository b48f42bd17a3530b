// Package middleware contains Telegram bot middlewares for request processing.
package middleware

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER MIDDLEWARE
// Token bucket per Telegram user. A user who keeps hitting the limit is
// temporarily banned.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the refill rate of each bucket.
	RequestsPerMinute int

	// BurstSize is the bucket capacity.
	BurstSize int

	// CleanupInterval is how often idle buckets and expired bans are dropped.
	CleanupInterval time.Duration

	// BanDuration is how long a repeat offender is ignored.
	BanDuration time.Duration

	// BanThreshold is the number of violations within ViolationWindow before a ban.
	BanThreshold int

	// ViolationWindow resets the violation counter when exceeded.
	ViolationWindow time.Duration

	// WhitelistedUsers are exempt from rate limiting.
	WhitelistedUsers map[int64]bool
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting.
// A full application takes seven messages, so bursts must cover that.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 30,
		BurstSize:         10,
		CleanupInterval:   5 * time.Minute,
		BanDuration:       10 * time.Minute,
		BanThreshold:      5,
		ViolationWindow:   5 * time.Minute,
		WhitelistedUsers:  make(map[int64]bool),
	}
}

// RateLimiter implements per-user rate limiting using the token bucket algorithm.
type RateLimiter struct {
	config  RateLimitConfig
	buckets sync.Map // map[int64]*tokenBucket
	bans    sync.Map // map[int64]time.Time (expiry)
	now     func() time.Time

	wlMu sync.RWMutex
}

// tokenBucket represents a user's rate limit state.
type tokenBucket struct {
	mu           sync.Mutex
	tokens       float64
	lastRefill   time.Time
	refillRate   float64 // tokens per second
	maxTokens    float64
	violations   int
	lastViolated time.Time
}

// NewRateLimiter creates a new rate limiter. Call Run to enable cleanup.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	def := DefaultRateLimitConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.BurstSize <= 0 {
		config.BurstSize = def.BurstSize
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	if config.ViolationWindow <= 0 {
		config.ViolationWindow = def.ViolationWindow
	}
	if config.WhitelistedUsers == nil {
		config.WhitelistedUsers = make(map[int64]bool)
	}
	return &RateLimiter{config: config, now: time.Now}
}

// RateLimitResult represents the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration

	// IsBanned - пользователь временно заблокирован, отвечать не нужно.
	IsBanned     bool
	BanExpiresAt time.Time

	RemainingTokens int
}

// Check consumes one token of telegramID's bucket.
func (rl *RateLimiter) Check(_ context.Context, telegramID int64) *RateLimitResult {
	if rl.isWhitelisted(telegramID) {
		return &RateLimitResult{Allowed: true, RemainingTokens: rl.config.BurstSize}
	}

	now := rl.now()
	if exp, banned := rl.banExpiry(telegramID, now); banned {
		return &RateLimitResult{
			IsBanned:     true,
			BanExpiresAt: exp,
			RetryAfter:   exp.Sub(now),
		}
	}

	bucket := rl.getBucket(telegramID, now)
	allowed, retryAfter, remaining := bucket.consume(now)
	if allowed {
		return &RateLimitResult{Allowed: true, RemainingTokens: remaining}
	}

	if rl.config.BanThreshold > 0 && bucket.recordViolation(now, rl.config.ViolationWindow) >= rl.config.BanThreshold {
		rl.bans.Store(telegramID, now.Add(rl.config.BanDuration))
	}

	return &RateLimitResult{RetryAfter: retryAfter}
}

func (rl *RateLimiter) getBucket(telegramID int64, now time.Time) *tokenBucket {
	if val, ok := rl.buckets.Load(telegramID); ok {
		return val.(*tokenBucket)
	}

	bucket := &tokenBucket{
		tokens:     float64(rl.config.BurstSize),
		lastRefill: now,
		refillRate: float64(rl.config.RequestsPerMinute) / 60.0,
		maxTokens:  float64(rl.config.BurstSize),
	}

	actual, _ := rl.buckets.LoadOrStore(telegramID, bucket)
	return actual.(*tokenBucket)
}

// consume tries to take a token. Returns (allowed, retryAfter, remainingTokens).
func (b *tokenBucket) consume(now time.Time) (bool, time.Duration, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.maxTokens {
			b.tokens = b.maxTokens
		}
	}
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true, 0, int(b.tokens)
	}

	deficit := 1.0 - b.tokens
	return false, time.Duration(deficit / b.refillRate * float64(time.Second)), 0
}

// recordViolation returns the violation count inside the window.
func (b *tokenBucket) recordViolation(now time.Time, window time.Duration) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastViolated) > window {
		b.violations = 0
	}
	b.violations++
	b.lastViolated = now
	return b.violations
}

func (rl *RateLimiter) banExpiry(telegramID int64, now time.Time) (time.Time, bool) {
	val, ok := rl.bans.Load(telegramID)
	if !ok {
		return time.Time{}, false
	}
	exp := val.(time.Time)
	if now.After(exp) {
		rl.bans.Delete(telegramID)
		rl.buckets.Delete(telegramID)
		return time.Time{}, false
	}
	return exp, true
}

// ─── management ───

// Reset resets the rate limit state for a user.
func (rl *RateLimiter) Reset(telegramID int64) {
	rl.buckets.Delete(telegramID)
	rl.bans.Delete(telegramID)
}

// AddToWhitelist adds a user to the whitelist.
func (rl *RateLimiter) AddToWhitelist(telegramID int64) {
	rl.wlMu.Lock()
	rl.config.WhitelistedUsers[telegramID] = true
	rl.wlMu.Unlock()
}

func (rl *RateLimiter) isWhitelisted(telegramID int64) bool {
	rl.wlMu.RLock()
	defer rl.wlMu.RUnlock()
	return rl.config.WhitelistedUsers[telegramID]
}

// Run drops idle buckets and expired bans until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup(rl.now())
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	inactive := 2 * rl.config.CleanupInterval

	rl.buckets.Range(func(key, value any) bool {
		bucket := value.(*tokenBucket)
		bucket.mu.Lock()
		idle := now.Sub(bucket.lastRefill) > inactive
		bucket.mu.Unlock()

		if idle {
			rl.buckets.Delete(key)
		}
		return true
	})

	rl.bans.Range(func(key, value any) bool {
		if now.After(value.(time.Time)) {
			rl.bans.Delete(key)
		}
		return true
	})
}
