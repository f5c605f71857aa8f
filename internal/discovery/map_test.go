package discovery

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/building-discovery/internal/cluster"
	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/feature"
	"github.com/building-discovery/internal/interaction"
	"github.com/building-discovery/internal/pkg/errors"
	"github.com/building-discovery/internal/pkg/scheduler"
	"github.com/building-discovery/internal/style"
)

type fakeSurface struct {
	bounds domain.Bounds
	camera domain.Camera
	index  *cluster.Index

	fits       []domain.Bounds
	flights    []domain.Camera
	styles     []style.Definition
	sources    []feature.SourceSpec
	resizes    int
	fullscreen bool
}

func (s *fakeSurface) Bounds() domain.Bounds { return s.bounds }
func (s *fakeSurface) Camera() domain.Camera { return s.camera }
func (s *fakeSurface) Stop()                 {}
func (s *fakeSurface) Resize()               { s.resizes++ }
func (s *fakeSurface) SetFullscreen(on bool) { s.fullscreen = on }

func (s *fakeSurface) FitBounds(b domain.Bounds) { s.fits = append(s.fits, b) }

func (s *fakeSurface) FlyTo(center orb.Point, zoom float64) {
	s.flights = append(s.flights, domain.Camera{Center: center, Zoom: zoom})
}

func (s *fakeSurface) SetStyle(def style.Definition) { s.styles = append(s.styles, def) }

// SetSource кластеризует клиентский пакет так же, как встроенный кластеризатор движка
func (s *fakeSurface) SetSource(src feature.SourceSpec) {
	s.sources = append(s.sources, src)
	if !src.Cluster {
		return
	}
	s.index = cluster.NewIndex(cluster.Options{
		MaxZoom: src.Settings.MaxZoom,
		Radius:  float64(src.Settings.Radius),
	}, nil)

	items := make([]cluster.Item, 0, len(src.Data.Features))
	for _, f := range src.Data.Features {
		items = append(items, cluster.Item{ID: f.ID.(string), Point: f.Point()})
	}
	s.index.Load(items)
}

func (s *fakeSurface) ClusterExpansionZoom(clusterID string) (float64, error) {
	id, err := strconv.Atoi(clusterID)
	if err != nil {
		return 0, err
	}
	zoom, err := s.index.ExpansionZoom(id)
	return float64(zoom), err
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FindNearby(ctx context.Context, center orb.Point, radiusM float64, query string, userID uuid.UUID) ([]domain.PointRecord, error) {
	args := m.Called(ctx, center, radiusM, query, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PointRecord), args.Error(1)
}

type MockActionHandler struct {
	mock.Mock
}

func (m *MockActionHandler) AddCandidate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockActionHandler) HideCandidate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockActionHandler) RemoveItem(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockActionHandler) RemoveMarker(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockActionHandler) UpdateMarkerNote(ctx context.Context, id, note string) error {
	return m.Called(ctx, id, note).Error(0)
}

func (m *MockActionHandler) Save(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockActionHandler) Visit(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type staticResolver map[string]string

func (r staticResolver) Resolve(path string) (string, bool) {
	url, ok := r[path]
	return url, ok
}

func ptr[T any](v T) *T { return &v }

func pointRecord(id string, lat, lng float64) domain.Record {
	return domain.Record{ID: id, Lat: ptr(lat), Lng: ptr(lng)}
}

func newTestMap(surface *fakeSurface, opts Options) (*Map, *scheduler.Manual) {
	sched := scheduler.NewManual()
	opts.Surface = surface
	opts.Scheduler = sched
	return New(opts, nil), sched
}

func TestMount_ForcedBoundsAtCurrentViewportDoesNotAnimate(t *testing.T) {
	unit := domain.Bounds{North: 1, South: 0, East: 1, West: 0}
	surface := &fakeSurface{bounds: unit}
	m, _ := newTestMap(surface, Options{})

	m.Mount(context.Background(), Props{Points: []domain.Record{}, ForcedBounds: &unit})

	assert.Empty(t, surface.fits)
	assert.False(t, m.State().IsMapMoving)
}

func TestUpdate_ForcedBoundsAppliedOnChangeOnly(t *testing.T) {
	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{})
	m.Mount(context.Background(), Props{Points: []domain.Record{}})

	target := domain.Bounds{North: 2, South: 1, East: 2, West: 1}
	m.Update(Props{Points: []domain.Record{}, ForcedBounds: &target})
	require.Len(t, surface.fits, 1)
	assert.True(t, m.State().IsMapMoving)

	same := target
	m.Update(Props{Points: []domain.Record{}, ForcedBounds: &same})
	assert.Len(t, surface.fits, 1)
}

func TestMount_RendersAndNotifiesLoad(t *testing.T) {
	loaded := false
	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{Callbacks: Callbacks{OnMapLoad: func() { loaded = true }}})

	m.Mount(context.Background(), Props{Points: []domain.Record{
		pointRecord("a", 41.39, 2.17),
		pointRecord("bad", 0, 0),
	}})

	assert.True(t, loaded)
	require.Len(t, surface.styles, 1)
	assert.Equal(t, style.KindStreet, surface.styles[0].Kind)
	require.Len(t, surface.sources, 1)
	assert.True(t, surface.sources[0].Cluster)
	assert.Len(t, surface.sources[0].Data.Features, 1)

	state, err := m.LoadState()
	assert.Equal(t, LoadReady, state)
	assert.NoError(t, err)
}

func TestServerClusterClick_ZoomsWithoutSelecting(t *testing.T) {
	surface := &fakeSurface{camera: domain.Camera{Center: orb.Point{0, 40}, Zoom: 6}}
	m, _ := newTestMap(surface, Options{})

	m.Mount(context.Background(), Props{
		HighlightedID: "b-1",
		Points: []domain.Record{
			{ID: "c-1", IsCluster: ptr(true), Count: 25, Lat: ptr(40.5), Lng: ptr(-3.5)},
		},
	})
	require.False(t, surface.sources[0].Cluster)

	m.HandleClick("c-1", interaction.InputMouse)

	require.Len(t, surface.flights, 1)
	assert.Equal(t, orb.Point{-3.5, 40.5}, surface.flights[0].Center)
	assert.Equal(t, 8.0, surface.flights[0].Zoom)
	assert.Equal(t, "b-1", m.State().SelectedID)
	assert.True(t, m.State().UserHasInteracted)
}

func TestClientClusterClick_FliesToExpansionZoom(t *testing.T) {
	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{})

	m.Mount(context.Background(), Props{Points: []domain.Record{
		pointRecord("a", 50, 10.0000),
		pointRecord("b", 50, 10.0001),
		pointRecord("c", 50, 10.5),
	}})

	world := domain.Bounds{North: 85, South: -85, East: 180, West: -180}
	nodes := surface.index.Clusters(world, 0)
	require.Len(t, nodes, 1)
	require.True(t, nodes[0].IsCluster)

	m.HandleClientClusterClick(nodes[0].ID, nodes[0].Point)

	require.Len(t, surface.flights, 1)
	assert.Equal(t, 7.0, surface.flights[0].Zoom)
	assert.Empty(t, m.State().SelectedID)
}

func TestClientClusterClick_UnknownClusterIsIgnored(t *testing.T) {
	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{})
	m.Mount(context.Background(), Props{Points: []domain.Record{pointRecord("a", 50, 10)}})

	m.HandleClientClusterClick("999999", orb.Point{10, 50})
	assert.Empty(t, surface.flights)
}

func TestTouchClick_SecondTapInvokesMarkerClick(t *testing.T) {
	var clicked []string
	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{Callbacks: Callbacks{
		OnMarkerClick: func(id string) { clicked = append(clicked, id) },
	}})
	m.Mount(context.Background(), Props{Points: []domain.Record{pointRecord("b-1", 41.39, 2.17)}})

	m.HandleClick("b-1", interaction.InputTouch)
	assert.Empty(t, clicked)
	assert.Equal(t, "b-1", m.State().SelectedID)
	assert.Equal(t, "b-1", m.State().HoveredID)

	m.HandleClick("b-1", interaction.InputTouch)
	assert.Equal(t, []string{"b-1"}, clicked)
}

func TestSelfFetch(t *testing.T) {
	userID := uuid.New()
	center := orb.Point{2.17, 41.39}
	fetcher := new(MockFetcher)
	fetcher.On("FindNearby", mock.Anything, center, 2500.0, "gaudi", userID).
		Return([]domain.PointRecord{{ID: "b-1", Lat: 41.4, Lng: 2.17, Precision: domain.PrecisionExact}}, nil)

	surface := &fakeSurface{camera: domain.Camera{Center: center, Zoom: 13}}
	m, _ := newTestMap(surface, Options{
		Fetcher: fetcher,
		UserID:  userID,
		Config:  Config{NearbyRadiusM: 2500},
	})

	m.Mount(context.Background(), Props{Query: "gaudi"})

	state, err := m.LoadState()
	assert.Equal(t, LoadReady, state)
	assert.NoError(t, err)
	require.Len(t, surface.sources, 1)
	assert.Len(t, surface.sources[0].Data.Features, 1)
	fetcher.AssertExpectations(t)
}

func TestSelfFetch_UsesDefaultCenterBeforeFirstMove(t *testing.T) {
	fallback := orb.Point{2.17, 41.39}
	fetcher := new(MockFetcher)
	fetcher.On("FindNearby", mock.Anything, fallback, DefaultNearbyRadiusM, "", uuid.Nil).
		Return([]domain.PointRecord{}, nil).Once()

	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{
		Fetcher: fetcher,
		Config:  Config{DefaultCenter: fallback},
	})

	m.Mount(context.Background(), Props{})

	state, err := m.LoadState()
	assert.Equal(t, LoadReady, state)
	assert.NoError(t, err)
	fetcher.AssertExpectations(t)
}

func TestSelfFetch_FailureShowsFailedState(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FindNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.ErrUpstreamUnavailable)

	loaded := false
	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{
		Fetcher:   fetcher,
		Callbacks: Callbacks{OnMapLoad: func() { loaded = true }},
	})

	m.Mount(context.Background(), Props{})

	state, err := m.LoadState()
	assert.Equal(t, LoadFailed, state)
	assert.True(t, stderrors.Is(err, errors.ErrUpstreamUnavailable))
	assert.Empty(t, surface.sources)
	assert.True(t, loaded)
}

func TestStyleErrorFallsBackToSatellite(t *testing.T) {
	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{})
	m.Mount(context.Background(), Props{Points: []domain.Record{}})

	m.HandleError("Error: could not load style")

	require.Len(t, surface.styles, 2)
	assert.Equal(t, style.KindSatellite, surface.styles[1].Kind)
	assert.True(t, m.State().IsSatellite)
	assert.True(t, m.StyleNotice())
	assert.False(t, m.State().UserHasInteracted)

	m.ToggleStyle()
	assert.False(t, m.State().IsSatellite)
	assert.False(t, m.StyleNotice())
	assert.True(t, m.State().UserHasInteracted)
}

func TestFullscreenAndUnmount(t *testing.T) {
	surface := &fakeSurface{}
	m, sched := newTestMap(surface, Options{})
	m.Mount(context.Background(), Props{Points: []domain.Record{pointRecord("b-1", 41.39, 2.17)}})

	m.ToggleFullscreen()
	assert.True(t, surface.fullscreen)
	sched.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, surface.resizes)

	m.HandlePointerEnter("b-1")
	m.HandlePointerLeave()
	m.FitBounds(domain.Bounds{North: 3, South: 2, East: 3, West: 2})
	require.Greater(t, sched.Pending(), 0)

	m.Unmount()
	assert.False(t, surface.fullscreen)
	assert.Zero(t, sched.Pending())
	assert.False(t, m.State().IsMapMoving)
}

func TestUnmountResetsStateAndRemountAcceptsCamera(t *testing.T) {
	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{})
	props := Props{Points: []domain.Record{pointRecord("b-1", 41.39, 2.17)}}

	m.Mount(context.Background(), props)
	m.HandleClick("b-1", interaction.InputMouse)
	require.Equal(t, "b-1", m.State().SelectedID)

	m.Unmount()
	state := m.State()
	assert.Empty(t, state.SelectedID)
	assert.Empty(t, state.HoveredID)
	assert.False(t, state.UserHasInteracted)

	forced := domain.Bounds{North: 1, South: 0, East: 1, West: 0}
	props.ForcedBounds = &forced
	m.Mount(context.Background(), props)
	assert.Equal(t, []domain.Bounds{forced}, surface.fits)

	m.HandleMoveEnd()
	assert.True(t, m.FlyTo(orb.Point{10, 10}, 5))
	assert.Len(t, surface.flights, 1)
}

func TestHighlightedIDUpdate(t *testing.T) {
	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{})
	m.Mount(context.Background(), Props{Points: []domain.Record{pointRecord("b-1", 41.39, 2.17)}})

	m.HandleClick("b-1", interaction.InputMouse)
	m.Update(Props{HighlightedID: "b-2"})
	assert.Equal(t, "b-2", m.State().SelectedID)
}

func TestOverlays_ResolveImagesWhenEnabled(t *testing.T) {
	rec := pointRecord("b-1", 41.39, 2.17)
	rec.ImageURL = ptr("buildings/b-1.jpg")
	resolver := staticResolver{"buildings/b-1.jpg": "https://cdn.example.com/b-1.jpg"}

	surface := &fakeSurface{}
	m, _ := newTestMap(surface, Options{Images: resolver})
	m.Mount(context.Background(), Props{Points: []domain.Record{rec}, HighlightedID: "b-1"})

	out := m.Overlays()
	require.Len(t, out, 1)
	assert.Empty(t, out[0].ImageURL)

	m.Update(Props{Points: []domain.Record{rec}, HighlightedID: "b-1", ShowImages: true})
	out = m.Overlays()
	require.Len(t, out, 1)
	assert.Equal(t, "https://cdn.example.com/b-1.jpg", out[0].ImageURL)
	assert.Equal(t, []domain.ActionKind{domain.ActionSave, domain.ActionVisit}, out[0].Actions)
}

func TestAction_Dispatch(t *testing.T) {
	ctx := context.Background()
	handler := new(MockActionHandler)
	handler.On("Save", ctx, "b-1").Return(nil)
	handler.On("UpdateMarkerNote", ctx, "m-1", "rooftop").Return(nil)
	handler.On("Visit", ctx, "b-2").Return(stderrors.New("store down"))

	m, _ := newTestMap(&fakeSurface{}, Options{Actions: handler})

	require.NoError(t, m.Action(ctx, domain.ActionSave, "b-1", ""))
	require.NoError(t, m.Action(ctx, domain.ActionUpdateMarkerNote, "m-1", "rooftop"))
	assert.Error(t, m.Action(ctx, domain.ActionVisit, "b-2", ""))

	err := m.Action(ctx, domain.ActionKind("explode"), "b-1", "")
	assert.True(t, stderrors.Is(err, errors.ErrInvalidAction))

	handler.AssertExpectations(t)
}
