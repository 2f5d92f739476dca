package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis instance behind the credential rate limiter.
type RedisConfig struct {
	Addr     string // REDIS_ADDR, or REDIS_HOST:REDIS_PORT when both are set
	Password string // REDIS_PASSWORD
	DB       int    // REDIS_DB
	TLS      bool   // REDIS_TLS
}

func LoadRedisConfig() RedisConfig {
	rc := RedisConfig{
		Addr:     envStr("REDIS_ADDR", "localhost:6379"),
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      envBool("REDIS_TLS", false),
	}
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		rc.Addr = host + ":" + port
	}
	return rc
}

// NewRedisClient connects and pings.  Callers treat an error as "no rate
// limiting" rather than a fatal condition.
func NewRedisClient(ctx context.Context, rc RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB}
	if rc.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", rc.Addr, err)
	}
	return client, nil
}
