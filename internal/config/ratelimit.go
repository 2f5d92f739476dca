package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig controls the token bucket in front of register, login
// and refresh.  The defaults allow a burst of 10 attempts per client and
// route, then one more every 6 seconds.
type RateLimitConfig struct {
	Enabled     bool
	Capacity    int           // bucket size
	RefillEvery time.Duration // one token is added per interval
	KeyStrategy string        // "ip", "user", "ip_route" or "ip_user_route"
	Prefix      string        // Redis key prefix
}

func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Capacity:    envInt("RATE_LIMIT_CAPACITY", 10),
		RefillEvery: envDur("RATE_LIMIT_REFILL_EVERY", 6*time.Second),
		KeyStrategy: strings.ToLower(envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route")),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
	}.normalize()
}

func (c RateLimitConfig) normalize() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillEvery <= 0 {
		c.RefillEvery = time.Second
	}
	if c.Prefix == "" {
		c.Prefix = "rl"
	}
	return c
}

// TTL is how long an idle bucket is kept: long enough to refill completely.
func (c RateLimitConfig) TTL() time.Duration {
	return time.Duration(c.Capacity+1) * c.RefillEvery
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return d
	}
	return b
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
