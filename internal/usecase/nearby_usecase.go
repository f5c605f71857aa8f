package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/config"
	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/domain/repository"
	"github.com/building-discovery/internal/geo"
	"github.com/building-discovery/internal/pkg/errors"
	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/pkg/utils"
)

const nearbyCachePrefix = "nearby:"

// NearbyOptions - параметры поиска точек рядом
type NearbyOptions struct {
	DefaultRadiusM          float64
	CacheTTL                time.Duration
	MaxRetries              int
	InitialBackoff          time.Duration
	BreakerFailureThreshold uint32
	BreakerTimeout          time.Duration
}

// NearbyOptionsFromConfig собирает параметры из конфигурации сервиса
func NearbyOptionsFromConfig(cfg *config.Config) NearbyOptions {
	return NearbyOptions{
		DefaultRadiusM:          cfg.Map.NearbyRadiusM,
		CacheTTL:                cfg.Cache.NearbyCacheTTL,
		MaxRetries:              cfg.Fetch.MaxRetries,
		InitialBackoff:          cfg.Fetch.InitialBackoff,
		BreakerFailureThreshold: cfg.Fetch.BreakerFailureThreshold,
		BreakerTimeout:          cfg.Fetch.BreakerTimeout,
	}
}

type NearbyUseCase struct {
	pointRepo  repository.PointRepository
	statusRepo repository.StatusRepository
	cache      repository.CacheRepository
	breaker    *gobreaker.CircuitBreaker[[]domain.PointRecord]
	opts       NearbyOptions
	logger     *zap.Logger
}

// NewNearbyUseCase - cache может быть nil, тогда кеш не используется
func NewNearbyUseCase(
	pointRepo repository.PointRepository,
	statusRepo repository.StatusRepository,
	cache repository.CacheRepository,
	opts NearbyOptions,
	log *zap.Logger,
) *NearbyUseCase {
	log = logger.OrNop(log)
	if opts.DefaultRadiusM <= 0 {
		opts.DefaultRadiusM = 5000
	}
	if opts.BreakerFailureThreshold == 0 {
		opts.BreakerFailureThreshold = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 200 * time.Millisecond
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	threshold := opts.BreakerFailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]domain.PointRecord](gobreaker.Settings{
		Name:        "points-store",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &NearbyUseCase{
		pointRepo:  pointRepo,
		statusRepo: statusRepo,
		cache:      cache,
		breaker:    breaker,
		opts:       opts,
		logger:     log,
	}
}

// FindNearby возвращает здания вокруг центра с персональными статусами.
// Без пользователя или при ошибке статусов точки возвращаются без цвета.
func (uc *NearbyUseCase) FindNearby(
	ctx context.Context,
	center orb.Point,
	radiusM float64,
	query string,
	userID uuid.UUID,
) ([]domain.PointRecord, error) {
	if !geo.IsValid(center.Lat(), center.Lon()) {
		return nil, errors.ErrInvalidCoordinates
	}
	if math.IsNaN(radiusM) || math.IsInf(radiusM, 0) || radiusM < 0 {
		return nil, errors.ErrInvalidRadius
	}
	if radiusM == 0 {
		radiusM = uc.opts.DefaultRadiusM
	}
	radiusM = utils.ClampRadius(radiusM)
	query = strings.TrimSpace(query)

	key := NearbyCacheKey(userID, center, radiusM, query)
	if uc.cache != nil {
		cached, err := uc.cache.GetNearby(ctx, key)
		if err != nil {
			uc.logger.Warn("Nearby cache read failed", zap.String("key", key), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	points, err := uc.fetch(ctx, center, radiusM, query)
	if err != nil {
		return nil, err
	}

	points = WithinRadius(points, center, radiusM)
	points = uc.mergeStatuses(ctx, points, userID)

	if uc.cache != nil && uc.opts.CacheTTL > 0 {
		if err := uc.cache.SetNearby(ctx, key, points, uc.opts.CacheTTL); err != nil {
			uc.logger.Warn("Nearby cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return points, nil
}

// fetch вызывает хранилище через breaker с ограниченным числом повторов
func (uc *NearbyUseCase) fetch(ctx context.Context, center orb.Point, radiusM float64, query string) ([]domain.PointRecord, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = uc.opts.InitialBackoff
	b.MaxElapsedTime = 0

	attempt := 0
	points, err := backoff.RetryWithData(func() ([]domain.PointRecord, error) {
		attempt++
		res, err := uc.breaker.Execute(func() ([]domain.PointRecord, error) {
			return uc.pointRepo.FindNearby(ctx, center, radiusM, query)
		})
		if err == nil {
			return res, nil
		}
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) || ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		uc.logger.Warn("Nearby fetch attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		return nil, err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(uc.opts.MaxRetries)), ctx))

	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			uc.logger.Warn("Points store circuit is open", zap.Error(err))
			return nil, errors.ErrUpstreamUnavailable
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		uc.logger.Error("Failed to fetch nearby points",
			zap.Int("attempts", attempt),
			zap.Error(err))
		return nil, fmt.Errorf("find nearby: %w", err)
	}

	if points == nil {
		points = []domain.PointRecord{}
	}
	return points, nil
}

// WithinRadius оставляет точки в радиусе от центра и сортирует их по расстоянию.
// Огрублённым точкам радиус расширяется на MaxJitterMeters.
func WithinRadius(points []domain.PointRecord, center orb.Point, radiusM float64) []domain.PointRecord {
	type ranked struct {
		rec  domain.PointRecord
		dist float64
	}

	kept := make([]ranked, 0, len(points))
	for _, p := range points {
		d := geo.DistanceMeters(center, orb.Point{p.Lng, p.Lat})
		limit := radiusM
		if p.IsApproximate() {
			limit += geo.MaxJitterMeters
		}
		if d <= limit {
			kept = append(kept, ranked{rec: p, dist: d})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].dist < kept[j].dist })

	out := make([]domain.PointRecord, len(kept))
	for i, k := range kept {
		out[i] = k.rec
	}
	return out
}

func (uc *NearbyUseCase) mergeStatuses(ctx context.Context, points []domain.PointRecord, userID uuid.UUID) []domain.PointRecord {
	if len(points) == 0 {
		return points
	}
	if userID == uuid.Nil {
		uc.logger.Warn("No user session, statuses are not merged")
		return points
	}

	ids := make([]string, 0, len(points))
	for _, p := range points {
		ids = append(ids, p.ID)
	}

	statuses, err := uc.statusRepo.FetchStatusMap(ctx, userID, ids)
	if err != nil {
		uc.logger.Warn("Failed to fetch status map",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return points
	}

	return MergeStatuses(points, statuses)
}

// MergeStatuses проставляет статусы из карты. Исходный срез не меняется.
func MergeStatuses(points []domain.PointRecord, statuses map[string]domain.Status) []domain.PointRecord {
	out := make([]domain.PointRecord, len(points))
	copy(out, points)
	for i := range out {
		if s, ok := statuses[out[i].ID]; ok {
			out[i].Status = s
		}
	}
	return out
}

// NearbyCachePrefix - общий префикс ключей пользователя, для инвалидации
func NearbyCachePrefix(userID uuid.UUID) string {
	if userID == uuid.Nil {
		return nearbyCachePrefix + "anon:"
	}
	return nearbyCachePrefix + userID.String() + ":"
}

// NearbyCacheKey - центр округляется до 4 знаков (~11 м)
func NearbyCacheKey(userID uuid.UUID, center orb.Point, radiusM float64, query string) string {
	return fmt.Sprintf("%s%.4f:%.4f:%.0f:%s",
		NearbyCachePrefix(userID),
		center.Lat(), center.Lon(),
		radiusM,
		strings.ToLower(query))
}
