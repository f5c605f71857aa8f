package repository

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/building-discovery/internal/domain"
)

// PointRepository - поиск зданий во внешнем хранилище
type PointRepository interface {
	// FindNearby возвращает здания в радиусе от центра, опционально с фильтром по имени
	FindNearby(ctx context.Context, center orb.Point, radiusM float64, query string) ([]domain.PointRecord, error)
}
