package repository

import (
	"context"
	"time"

	"github.com/building-discovery/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix удаляет все ключи с префиксом, возвращает число удалённых
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetNearby получает результат поиска точек, nil при промахе
	GetNearby(ctx context.Context, key string) ([]domain.PointRecord, error)

	// SetNearby сохраняет результат поиска точек в сжатом виде
	SetNearby(ctx context.Context, key string, points []domain.PointRecord, ttl time.Duration) error
}
