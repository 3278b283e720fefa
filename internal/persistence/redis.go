package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/config"
)

// Redis carries realtime fan-out between replicas and in-flight quiz
// attempts. Both are recoverable, so an unreachable server at startup only
// degrades readiness.
type Redis struct {
	Client *redis.Client
	prefix string
}

// NewRedis builds the client and probes the server once.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(probeCtx).Err(); err != nil {
		logger.Warn("redis unreachable; realtime and quiz attempts degraded",
			zap.String("addr", cfg.Addr),
			zap.Error(err),
		)
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client, prefix: cfg.KeyPrefix}
}

// Key namespaces a key under the configured prefix, e.g. Key("attempt")
// gives "squad:attempt". Key() alone returns the bare prefix.
func (r *Redis) Key(parts ...string) string {
	if r.prefix == "" {
		return strings.Join(parts, ":")
	}
	if len(parts) == 0 {
		return r.prefix
	}
	return r.prefix + ":" + strings.Join(parts, ":")
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping backs the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
