package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/records-service/internal/config"
	"github.com/iliyamo/records-service/internal/metrics"
)

// takeScript refills the bucket for the elapsed whole intervals and takes
// one token.  Returns {allowed, remaining, wait_ms}.
var takeScript = redis.NewScript(`
local cap, every, now, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens, ts = tonumber(b[1]), tonumber(b[2])
if tokens == nil then
  tokens, ts = cap, now
end
local n = math.floor((now - ts) / every)
if n > 0 then
  tokens = math.min(cap, tokens + n)
  ts = ts + n * every
end
local allowed, wait = 0, 0
if tokens > 0 then
  allowed, tokens = 1, tokens - 1
else
  wait = math.max(0, every - (now - ts))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

// Decision is the outcome of one Take.
type Decision struct {
	Allowed   bool
	Remaining int64
	Wait      time.Duration
}

// Bucket is a Redis-backed token bucket shared by every replica.
type Bucket struct {
	cfg config.RateLimitConfig
	rdb redis.Scripter
}

func NewBucket(cfg config.RateLimitConfig, rdb redis.Scripter) *Bucket {
	return &Bucket{cfg: cfg, rdb: rdb}
}

// Take removes one token from the bucket at key.
func (b *Bucket) Take(ctx context.Context, key string) (Decision, error) {
	res, err := takeScript.Run(ctx, b.rdb, []string{key},
		b.cfg.Capacity,
		b.cfg.RefillEvery.Milliseconds(),
		time.Now().UnixMilli(),
		b.cfg.TTL().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	return Decision{
		Allowed:   res[0] == 1,
		Remaining: res[1],
		Wait:      time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket rate limits the routes it wraps.  Without Redis, or when
// disabled, it passes every request through.  Redis errors fail open so a
// limiter outage never locks users out.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return RateLimit(NewBucket(cfg, rdb), cfg)
}

// RateLimit enforces b on every request, keyed per cfg.KeyStrategy.
func RateLimit(b *Bucket, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := b.Take(c.Request().Context(), buildRateKey(cfg, c))
			if err != nil {
				c.Logger().Warnf("ratelimit: %v", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			if d.Allowed {
				return next(c)
			}

			secs := int((d.Wait + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			metrics.RateLimited.WithLabelValues(c.Path()).Inc()
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too many requests",
				"retry_after": secs,
			})
		}
	}
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch cfg.KeyStrategy {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", userID(c))
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", userID(c), "route", route)
	}
	return strings.Join(parts, ":")
}
