package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const msgRateLimited = "Too many requests. Please try again later."

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// Decision is a limiter's verdict for one request.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// LimiterStore decides whether the request identified by key may proceed.
type LimiterStore interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimit limits requests per client IP using store. When the store fails
// the request is let through and the failure logged.
func RateLimit(cfg RateLimitConfig, store LimiterStore, logger zerolog.Logger) echo.MiddlewareFunc {
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := store.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				logger.Warn().Err(err).Str("request_id", requestID(c)).Msg("rate limiter unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				return echo.NewHTTPError(http.StatusTooManyRequests, msgRateLimited)
			}
			return next(c)
		}
	}
}

// tokenBucket implements a token bucket rate limiter.
type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// MemoryStore keeps one token bucket per key in process memory.
type MemoryStore struct {
	cfg     RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

func NewMemoryStore(cfg RateLimitConfig) *MemoryStore {
	return &MemoryStore{cfg: cfg, now: time.Now, buckets: make(map[string]*tokenBucket)}
}

func (s *MemoryStore) Allow(_ context.Context, key string) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	burst := float64(s.cfg.BurstSize)
	b, ok := s.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: burst, lastRefill: now}
		s.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * s.cfg.RequestsPerSecond
	if b.tokens > burst {
		b.tokens = burst
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return Decision{Allowed: true, Remaining: int(b.tokens)}, nil
	}

	retry := time.Second
	if s.cfg.RequestsPerSecond > 0 {
		retry = time.Duration((1 - b.tokens) / s.cfg.RequestsPerSecond * float64(time.Second))
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}

// RedisStore is a fixed-window counter shared by every instance pointed at
// the same Redis. Each window admits BurstSize requests.
type RedisStore struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, cfg RateLimitConfig) *RedisStore {
	limit := cfg.BurstSize
	if limit <= 0 {
		limit = int(cfg.RequestsPerSecond)
	}
	return &RedisStore{
		client: client,
		limit:  limit,
		window: time.Second,
		prefix: "medirx:ratelimit:",
		now:    time.Now,
	}
}

func (s *RedisStore) windowKey(key string, now time.Time) (string, time.Duration) {
	idx := now.UnixNano() / int64(s.window)
	reset := time.Unix(0, (idx+1)*int64(s.window)).Sub(now)
	return fmt.Sprintf("%s%s:%d", s.prefix, key, idx), reset
}

func (s *RedisStore) Allow(ctx context.Context, key string) (Decision, error) {
	k, reset := s.windowKey(key, s.now())

	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", k, err)
	}
	if n == 1 {
		if err := s.client.Expire(ctx, k, 2*s.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", k, err)
		}
	}

	if n > int64(s.limit) {
		return Decision{Allowed: false, RetryAfter: reset}, nil
	}
	return Decision{Allowed: true, Remaining: s.limit - int(n)}, nil
}

// NewRedisClient parses url (redis://...) and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
