package usecase_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/pkg/errors"
	"github.com/building-discovery/internal/usecase"
)

var (
	barcelona = orb.Point{2.1734, 41.3851}
	testUser  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
)

func nearbyOpts() usecase.NearbyOptions {
	return usecase.NearbyOptions{
		DefaultRadiusM:          5000,
		CacheTTL:                time.Minute,
		MaxRetries:              2,
		InitialBackoff:          time.Millisecond,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          time.Minute,
	}
}

func storePoints() []domain.PointRecord {
	return []domain.PointRecord{
		{ID: "b1", Lat: 41.3851, Lng: 2.1734, Precision: domain.PrecisionExact},
		{ID: "b2", Lat: 41.3900, Lng: 2.1700, Precision: domain.PrecisionApproximate},
	}
}

func TestNearbyUseCase_MergesStatuses(t *testing.T) {
	points := &MockPointRepository{}
	statuses := &MockStatusRepository{}
	ctx := context.Background()

	points.On("FindNearby", mock.Anything, barcelona, 5000.0, "casa").Return(storePoints(), nil).Once()
	statuses.On("FetchStatusMap", mock.Anything, testUser, []string{"b1", "b2"}).
		Return(map[string]domain.Status{"b2": domain.StatusVisited}, nil).Once()

	uc := usecase.NewNearbyUseCase(points, statuses, nil, nearbyOpts(), zap.NewNop())

	res, err := uc.FindNearby(ctx, barcelona, 0, "  casa ", testUser)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, domain.StatusNone, res[0].Status)
	assert.Equal(t, domain.StatusVisited, res[1].Status)

	points.AssertExpectations(t)
	statuses.AssertExpectations(t)
}

func TestNearbyUseCase_WithoutSession(t *testing.T) {
	points := &MockPointRepository{}
	statuses := &MockStatusRepository{}

	points.On("FindNearby", mock.Anything, barcelona, 5000.0, "").Return(storePoints(), nil).Once()

	uc := usecase.NewNearbyUseCase(points, statuses, nil, nearbyOpts(), zap.NewNop())

	res, err := uc.FindNearby(context.Background(), barcelona, 5000, "", uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, res, 2)
	statuses.AssertNotCalled(t, "FetchStatusMap", mock.Anything, mock.Anything, mock.Anything)
}

func TestNearbyUseCase_StatusFailureReturnsUncoloured(t *testing.T) {
	points := &MockPointRepository{}
	statuses := &MockStatusRepository{}

	points.On("FindNearby", mock.Anything, barcelona, 5000.0, "").Return(storePoints(), nil).Once()
	statuses.On("FetchStatusMap", mock.Anything, testUser, mock.Anything).
		Return(nil, stderrors.New("boom")).Once()

	uc := usecase.NewNearbyUseCase(points, statuses, nil, nearbyOpts(), zap.NewNop())

	res, err := uc.FindNearby(context.Background(), barcelona, 5000, "", testUser)
	require.NoError(t, err)
	for _, p := range res {
		assert.Equal(t, domain.StatusNone, p.Status)
	}
}

func TestNearbyUseCase_InvalidInput(t *testing.T) {
	uc := usecase.NewNearbyUseCase(&MockPointRepository{}, &MockStatusRepository{}, nil, nearbyOpts(), nil)
	ctx := context.Background()

	_, err := uc.FindNearby(ctx, orb.Point{0, 0}, 1000, "", testUser)
	assert.ErrorIs(t, err, errors.ErrInvalidCoordinates)

	_, err = uc.FindNearby(ctx, orb.Point{200, 10}, 1000, "", testUser)
	assert.ErrorIs(t, err, errors.ErrInvalidCoordinates)

	_, err = uc.FindNearby(ctx, barcelona, -1, "", testUser)
	assert.ErrorIs(t, err, errors.ErrInvalidRadius)
}

func TestNearbyUseCase_ClampsRadius(t *testing.T) {
	points := &MockPointRepository{}
	points.On("FindNearby", mock.Anything, barcelona, 50000.0, "").Return([]domain.PointRecord{}, nil).Once()
	points.On("FindNearby", mock.Anything, barcelona, 100.0, "").Return([]domain.PointRecord{}, nil).Once()

	uc := usecase.NewNearbyUseCase(points, &MockStatusRepository{}, nil, nearbyOpts(), nil)

	_, err := uc.FindNearby(context.Background(), barcelona, 1e7, "", uuid.Nil)
	require.NoError(t, err)
	_, err = uc.FindNearby(context.Background(), barcelona, 3, "", uuid.Nil)
	require.NoError(t, err)

	points.AssertExpectations(t)
}

func TestNearbyUseCase_CacheAside(t *testing.T) {
	points := &MockPointRepository{}
	statuses := &MockStatusRepository{}
	cache := &MockCacheRepository{}
	ctx := context.Background()
	key := usecase.NearbyCacheKey(testUser, barcelona, 5000, "")

	t.Run("miss fills cache", func(t *testing.T) {
		cache.On("GetNearby", mock.Anything, key).Return(nil, nil).Once()
		points.On("FindNearby", mock.Anything, barcelona, 5000.0, "").Return(storePoints(), nil).Once()
		statuses.On("FetchStatusMap", mock.Anything, testUser, mock.Anything).
			Return(map[string]domain.Status{}, nil).Once()
		cache.On("SetNearby", mock.Anything, key, mock.Anything, time.Minute).Return(nil).Once()

		uc := usecase.NewNearbyUseCase(points, statuses, cache, nearbyOpts(), nil)
		res, err := uc.FindNearby(ctx, barcelona, 5000, "", testUser)
		require.NoError(t, err)
		assert.Len(t, res, 2)
	})

	t.Run("hit skips store", func(t *testing.T) {
		cached := []domain.PointRecord{{ID: "cached", Lat: 41.38, Lng: 2.17}}
		cache.On("GetNearby", mock.Anything, key).Return(cached, nil).Once()

		uc := usecase.NewNearbyUseCase(points, statuses, cache, nearbyOpts(), nil)
		res, err := uc.FindNearby(ctx, barcelona, 5000, "", testUser)
		require.NoError(t, err)
		assert.Equal(t, cached, res)
	})

	t.Run("cache errors are not fatal", func(t *testing.T) {
		cache.On("GetNearby", mock.Anything, key).Return(nil, stderrors.New("redis down")).Once()
		points.On("FindNearby", mock.Anything, barcelona, 5000.0, "").Return(storePoints(), nil).Once()
		statuses.On("FetchStatusMap", mock.Anything, testUser, mock.Anything).
			Return(map[string]domain.Status{}, nil).Once()
		cache.On("SetNearby", mock.Anything, key, mock.Anything, time.Minute).Return(stderrors.New("redis down")).Once()

		uc := usecase.NewNearbyUseCase(points, statuses, cache, nearbyOpts(), nil)
		res, err := uc.FindNearby(ctx, barcelona, 5000, "", testUser)
		require.NoError(t, err)
		assert.Len(t, res, 2)
	})

	points.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestNearbyUseCase_RetriesTransientFailure(t *testing.T) {
	points := &MockPointRepository{}
	points.On("FindNearby", mock.Anything, barcelona, 5000.0, "").Return(nil, errors.ErrDatabaseError).Twice()
	points.On("FindNearby", mock.Anything, barcelona, 5000.0, "").Return(storePoints(), nil).Once()

	uc := usecase.NewNearbyUseCase(points, &MockStatusRepository{}, nil, nearbyOpts(), nil)

	res, err := uc.FindNearby(context.Background(), barcelona, 5000, "", uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, res, 2)
	points.AssertNumberOfCalls(t, "FindNearby", 3)
}

func TestNearbyUseCase_GivesUpAfterMaxRetries(t *testing.T) {
	points := &MockPointRepository{}
	points.On("FindNearby", mock.Anything, barcelona, 5000.0, "").Return(nil, errors.ErrDatabaseError)

	uc := usecase.NewNearbyUseCase(points, &MockStatusRepository{}, nil, nearbyOpts(), nil)

	_, err := uc.FindNearby(context.Background(), barcelona, 5000, "", uuid.Nil)
	assert.ErrorIs(t, err, errors.ErrDatabaseError)
	points.AssertNumberOfCalls(t, "FindNearby", 3)
}

func TestNearbyUseCase_BreakerOpens(t *testing.T) {
	points := &MockPointRepository{}
	points.On("FindNearby", mock.Anything, barcelona, 5000.0, "").Return(nil, errors.ErrDatabaseError)

	opts := nearbyOpts()
	opts.MaxRetries = 0
	opts.BreakerFailureThreshold = 2
	uc := usecase.NewNearbyUseCase(points, &MockStatusRepository{}, nil, opts, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := uc.FindNearby(ctx, barcelona, 5000, "", uuid.Nil)
		assert.ErrorIs(t, err, errors.ErrDatabaseError)
	}

	_, err := uc.FindNearby(ctx, barcelona, 5000, "", uuid.Nil)
	assert.ErrorIs(t, err, errors.ErrUpstreamUnavailable)
	points.AssertNumberOfCalls(t, "FindNearby", 2)
}

func TestMergeStatuses_DoesNotMutateInput(t *testing.T) {
	in := storePoints()
	out := usecase.MergeStatuses(in, map[string]domain.Status{"b1": domain.StatusPending})

	assert.Equal(t, domain.StatusPending, out[0].Status)
	assert.Equal(t, domain.StatusNone, in[0].Status)
}

func TestNearbyCacheKey(t *testing.T) {
	a := usecase.NearbyCacheKey(testUser, orb.Point{2.17341, 41.38512}, 5000, "Casa")
	b := usecase.NearbyCacheKey(testUser, orb.Point{2.17339, 41.38508}, 5000, "casa")
	assert.Equal(t, a, b)
	assert.Contains(t, a, usecase.NearbyCachePrefix(testUser))
	assert.NotEqual(t, usecase.NearbyCachePrefix(testUser), usecase.NearbyCachePrefix(uuid.Nil))
}

func TestWithinRadius(t *testing.T) {
	// ~1.1 км к северу и ~3.3 км к северу
	near := domain.PointRecord{ID: "near", Lat: 41.3951, Lng: 2.1734, Precision: domain.PrecisionExact}
	far := domain.PointRecord{ID: "far", Lat: 41.4151, Lng: 2.1734, Precision: domain.PrecisionExact}
	// ~1.1 км, но с допуском на огрубление проходит в радиус 1 км
	fuzzy := domain.PointRecord{ID: "fuzzy", Lat: 41.3951, Lng: 2.1734, Precision: domain.PrecisionApproximate}
	here := domain.PointRecord{ID: "here", Lat: 41.3851, Lng: 2.1734, Precision: domain.PrecisionExact}

	got := usecase.WithinRadius([]domain.PointRecord{far, near, here}, barcelona, 2000)
	require.Len(t, got, 2)
	assert.Equal(t, "here", got[0].ID)
	assert.Equal(t, "near", got[1].ID)

	got = usecase.WithinRadius([]domain.PointRecord{near, fuzzy}, barcelona, 1000)
	require.Len(t, got, 1)
	assert.Equal(t, "fuzzy", got[0].ID)

	assert.Empty(t, usecase.WithinRadius(nil, barcelona, 1000))
}

func TestNearbyUseCase_DropsPointsOutsideRadius(t *testing.T) {
	points := &MockPointRepository{}
	outside := domain.PointRecord{ID: "outside", Lat: 41.50, Lng: 2.1734, Precision: domain.PrecisionExact}

	points.On("FindNearby", mock.Anything, barcelona, 5000.0, "").
		Return(append(storePoints(), outside), nil).Once()

	uc := usecase.NewNearbyUseCase(points, &MockStatusRepository{}, nil, nearbyOpts(), zap.NewNop())

	res, err := uc.FindNearby(context.Background(), barcelona, 5000, "", uuid.Nil)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "b1", res[0].ID)
	assert.Equal(t, "b2", res[1].ID)
}
