package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/domain/repository"
)

const scanBatch = 200

type cacheRepository struct {
	client *redis.Client
	codec  *codec
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) (repository.CacheRepository, error) {
	c, err := newCodec()
	if err != nil {
		return nil, err
	}
	return &cacheRepository{
		client: redis.Client(),
		codec:  c,
		logger: redis.logger,
	}, nil
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

// DeleteByPrefix проходит ключи через SCAN, чтобы не блокировать Redis на KEYS
func (r *cacheRepository) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			r.logger.Error("Failed to scan cache keys", zap.String("prefix", prefix), zap.Error(err))
			return deleted, fmt.Errorf("cache scan error: %w", err)
		}

		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				r.logger.Error("Failed to delete cache keys", zap.String("prefix", prefix), zap.Error(err))
				return deleted, fmt.Errorf("cache delete error: %w", err)
			}
			deleted += n
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.logger.Debug("Cache keys deleted by prefix",
		zap.String("prefix", prefix),
		zap.Int64("deleted", deleted))
	return deleted, nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// GetNearby получает результат поиска точек из кеша
func (r *cacheRepository) GetNearby(ctx context.Context, key string) ([]domain.PointRecord, error) {
	data, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var points []domain.PointRecord
	if err := r.codec.decode(data, &points); err != nil {
		r.logger.Error("Failed to decode nearby points from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("decode nearby points: %w", err)
	}

	return points, nil
}

// SetNearby сохраняет результат поиска точек в кеше
func (r *cacheRepository) SetNearby(ctx context.Context, key string, points []domain.PointRecord, ttl time.Duration) error {
	if points == nil {
		points = []domain.PointRecord{}
	}

	data, err := r.codec.encode(points)
	if err != nil {
		r.logger.Error("Failed to encode nearby points", zap.Error(err))
		return fmt.Errorf("encode nearby points: %w", err)
	}

	return r.Set(ctx, key, data, ttl)
}

// codec - JSON, сжатый zstd. Encoder и Decoder безопасны для
// конкурентных EncodeAll/DecodeAll.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) encode(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func (c *codec) decode(data []byte, v interface{}) error {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("zstd decode: %w", err)
	}
	return json.Unmarshal(raw, v)
}
