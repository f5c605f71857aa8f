package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/config"
	"github.com/building-discovery/internal/pkg/logger"
)

const (
	dialTimeout  = 5 * time.Second
	dialAttempts = 3
)

// Redis - клиент кэша ответов nearby
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedis(cfg *config.RedisConfig, log *zap.Logger) (*Redis, error) {
	log = logger.OrNop(log)
	client, err := dial(cfg.Host, cfg.Port, cfg.Password, cfg.DB, "cache", log)
	if err != nil {
		return nil, err
	}
	return &Redis{client: client, logger: log}, nil
}

// NewRedisStreams - отдельный клиент под стрим действий; может смотреть
// в тот же инстанс, что и кэш.
func NewRedisStreams(cfg *config.RedisStreamsConfig, log *zap.Logger) (*redis.Client, error) {
	return dial(cfg.Host, cfg.Port, cfg.Password, cfg.DB, "streams", logger.OrNop(log))
}

func dial(host string, port int, password string, db int, role string, log *zap.Logger) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), dialAttempts-1)
	notify := func(err error, wait time.Duration) {
		log.Warn("Redis not ready, retrying",
			zap.String("role", role),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s at %s: %w", role, addr, err)
	}

	log.Info("Redis connected",
		zap.String("role", role),
		zap.String("addr", addr),
		zap.Int("db", db))

	return client, nil
}

func (r *Redis) Close() error {
	r.logger.Info("Closing Redis connection")
	return r.client.Close()
}

func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Client() *redis.Client {
	return r.client
}
