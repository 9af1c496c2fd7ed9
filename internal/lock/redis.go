package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"statement-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check: *RedisLocker must satisfy Locker.
var _ Locker = (*RedisLocker)(nil)

// releaseScript deletes the key only while it still carries our token, so a
// holder whose TTL expired never removes a lock someone else now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes work per key across processes sharing one Redis.
type RedisLocker struct {
	client        redis.UniversalClient
	prefix        string
	ttl           time.Duration
	retryInterval time.Duration
}

func NewRedisLocker(client redis.UniversalClient, cfg models.LockConfig) (*RedisLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive, got %v", cfg.TTL)
	}
	if cfg.RetryInterval <= 0 {
		return nil, fmt.Errorf("lock retry interval must be positive, got %v", cfg.RetryInterval)
	}

	prefix := strings.TrimSuffix(strings.TrimSpace(cfg.Prefix), ":")
	if prefix == "" {
		prefix = "statement-ledger:lock"
	}

	return &RedisLocker{
		client:        client,
		prefix:        prefix,
		ttl:           cfg.TTL,
		retryInterval: cfg.RetryInterval,
	}, nil
}

// NewRedisClient opens a client from lock settings and checks connectivity
func NewRedisClient(ctx context.Context, cfg models.LockConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping redis at %s: %w", cfg.RedisAddr, err)
	}

	zap.L().Info("Connected to Redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	return client, nil
}

func (r *RedisLocker) key(key string) string {
	return r.prefix + ":" + key
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.key(key)
	token := uuid.New().String()

	ticker := time.NewTicker(r.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", redisKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	zap.L().Debug("Lock acquired", zap.String("key", redisKey), zap.Duration("ttl", r.ttl))

	return func() {
		// The caller's ctx may already be cancelled; release must still run.
		releaseCtx, cancel := context.WithTimeout(context.Background(), r.ttl)
		defer cancel()

		released, err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			zap.L().Warn("Failed to release lock", zap.String("key", redisKey), zap.Error(err))
			return
		}
		if released == 0 {
			zap.L().Warn("Lock expired before release", zap.String("key", redisKey), zap.Duration("ttl", r.ttl))
		}
	}, nil
}
