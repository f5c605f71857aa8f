package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/feature"
	"github.com/building-discovery/internal/geo"
	"github.com/building-discovery/internal/interaction"
	"github.com/building-discovery/internal/pkg/errors"
	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/pkg/scheduler"
	"github.com/building-discovery/internal/style"
	"github.com/building-discovery/internal/viewport"
)

const DefaultNearbyRadiusM = 5000.0

// LoadState - состояние загрузки точек при самостоятельном запросе
type LoadState string

const (
	LoadIdle    LoadState = "idle"
	LoadLoading LoadState = "loading"
	LoadReady   LoadState = "ready"
	LoadFailed  LoadState = "failed"
)

// Props - внешние параметры экземпляра карты
type Props struct {
	// Points - готовый пакет. nil - карта сама запрашивает точки через Fetcher.
	Points []domain.Record

	Query               string
	HighlightedID       string
	ForcedBounds        *domain.Bounds
	ShowImages          bool
	ShowSavedCandidates bool
}

// Config - настройки экземпляра карты
type Config struct {
	NearbyRadiusM float64
	// DefaultCenter - центр запроса, пока движок не знает своей камеры (lng, lat)
	DefaultCenter orb.Point
	Cluster       feature.ClusterSettings

	WatchdogTimeout   time.Duration
	HoverDismissDelay time.Duration
	ResizeDelay       time.Duration

	Street    style.Definition
	Satellite style.Definition
}

// Options - зависимости экземпляра карты
type Options struct {
	Surface   Surface
	Scheduler scheduler.Scheduler
	Fetcher   Fetcher
	Images    ImageResolver
	Actions   ActionHandler
	Callbacks Callbacks
	Config    Config
	UserID    uuid.UUID
}

// Map - экземпляр интерактивной карты. Владеет своим кэшем jitter,
// состоянием взаимодействия и таймерами.
type Map struct {
	surface   Surface
	fetcher   Fetcher
	images    ImageResolver
	actions   ActionHandler
	callbacks Callbacks
	cfg       Config
	userID    uuid.UUID
	logger    *zap.Logger

	projector *feature.Projector
	viewport  *viewport.Controller
	machine   *interaction.Machine
	style     *style.Controller

	mu      sync.Mutex
	props   Props
	fetched []domain.Record
	set     feature.Set
	source  feature.SourceSpec
	load    LoadState
	loadErr error
	mounted bool
}

func New(opts Options, log *zap.Logger) *Map {
	log = logger.OrNop(log)
	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.Real()
	}

	cfg := opts.Config
	if cfg.NearbyRadiusM <= 0 {
		cfg.NearbyRadiusM = DefaultNearbyRadiusM
	}
	if cfg.Street.Kind == "" {
		cfg.Street = style.Street("")
	}
	if cfg.Satellite.Kind == "" {
		cfg.Satellite = style.Satellite("")
	}

	m := &Map{
		surface:   opts.Surface,
		fetcher:   opts.Fetcher,
		images:    opts.Images,
		actions:   opts.Actions,
		callbacks: opts.Callbacks,
		cfg:       cfg,
		userID:    opts.UserID,
		logger:    log,
		projector: feature.NewProjector(geo.NewJitterer(), log),
		style:     style.NewController(cfg.Street, cfg.Satellite, log),
		load:      LoadIdle,
	}

	m.viewport = viewport.NewController(opts.Surface, sched, viewport.Options{
		WatchdogTimeout: cfg.WatchdogTimeout,
		OnBoundsChange:  opts.Callbacks.OnBoundsChange,
		OnRegionChange:  opts.Callbacks.OnRegionChange,
	}, log)

	m.machine = interaction.NewMachine(sched, interaction.Options{
		HoverDismissDelay: cfg.HoverDismissDelay,
		ResizeDelay:       cfg.ResizeDelay,
		OnMarkerClick:     opts.Callbacks.OnMarkerClick,
		OnInteraction:     opts.Callbacks.OnMapInteraction,
		OnClosePopup:      opts.Callbacks.OnClosePopup,
		OnResize:          opts.Surface.Resize,
	}, log)

	return m
}

// Mount применяет стиль и параметры. Без готового пакета точки
// запрашиваются синхронно, ошибка загрузки отражается в LoadState.
func (m *Map) Mount(ctx context.Context, props Props) {
	m.mu.Lock()
	if m.mounted {
		m.mu.Unlock()
		return
	}
	m.mounted = true
	m.props = props
	m.mu.Unlock()

	m.viewport.Open()
	m.surface.SetStyle(m.style.Active())

	if props.HighlightedID != "" {
		m.machine.Highlight(props.HighlightedID)
	}

	if props.Points == nil && m.fetcher != nil {
		if err := m.Refresh(ctx); err != nil {
			m.logger.Warn("Initial points fetch failed", zap.Error(err))
		}
	} else {
		m.setLoad(LoadReady, nil)
		m.render()
	}

	if props.ForcedBounds != nil {
		m.viewport.FitBounds(*props.ForcedBounds)
	}

	if m.callbacks.OnMapLoad != nil {
		m.callbacks.OnMapLoad()
	}
}

// Update применяет новые параметры. Подсветка и принудительные границы
// применяются только при изменении значения.
func (m *Map) Update(props Props) {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return
	}
	prev := m.props
	m.props = props
	m.mu.Unlock()

	if props.HighlightedID != prev.HighlightedID {
		m.machine.Highlight(props.HighlightedID)
	}

	if props.Points != nil || props.ShowSavedCandidates != prev.ShowSavedCandidates {
		m.render()
	}

	if props.ForcedBounds != nil && !sameBounds(props.ForcedBounds, prev.ForcedBounds) {
		m.viewport.FitBounds(*props.ForcedBounds)
	}
}

func sameBounds(a, b *domain.Bounds) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Refresh запрашивает точки вокруг текущего центра карты
func (m *Map) Refresh(ctx context.Context) error {
	if m.fetcher == nil {
		return nil
	}

	m.mu.Lock()
	query := m.props.Query
	m.mu.Unlock()

	m.setLoad(LoadLoading, nil)
	center := m.fetchCenter()

	points, err := m.fetcher.FindNearby(ctx, center, m.cfg.NearbyRadiusM, query, m.userID)
	if err != nil {
		m.setLoad(LoadFailed, err)
		return fmt.Errorf("fetch nearby points: %w", err)
	}

	m.mu.Lock()
	m.fetched = domain.Records(points)
	m.mu.Unlock()

	m.setLoad(LoadReady, nil)
	m.render()
	return nil
}

// fetchCenter - центр камеры, а до первого движения DefaultCenter
func (m *Map) fetchCenter() orb.Point {
	center := m.surface.Camera().Center
	if geo.IsValid(center.Lat(), center.Lon()) {
		return center
	}
	m.logger.Debug("Camera center is not set, using default center",
		zap.Float64("lat", m.cfg.DefaultCenter.Lat()),
		zap.Float64("lng", m.cfg.DefaultCenter.Lon()))
	return m.cfg.DefaultCenter
}

func (m *Map) setLoad(state LoadState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.load = state
	m.loadErr = err
}

// LoadState - состояние загрузки и последняя ошибка
func (m *Map) LoadState() (LoadState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load, m.loadErr
}

func (m *Map) render() {
	m.mu.Lock()
	records := m.props.Points
	if records == nil {
		records = m.fetched
	}
	set := m.projector.Project(records, feature.Options{
		ShowSavedCandidates: m.props.ShowSavedCandidates,
	})
	source := feature.BuildSource(set, m.cfg.Cluster)
	m.set = set
	m.source = source
	m.mu.Unlock()

	m.surface.SetSource(source)
}

// Source - последний отданный движку источник
func (m *Map) Source() feature.SourceSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *Map) find(id string) (feature.Feature, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Find(id)
}

// State - состояние взаимодействия вместе с флагами камеры и стиля
func (m *Map) State() interaction.State {
	s := m.machine.State()
	s.IsMapMoving = m.viewport.IsMoving()
	s.IsSatellite = m.style.IsSatellite()
	return s
}

// StyleNotice - показывать ли уведомление об ошибке стиля
func (m *Map) StyleNotice() bool {
	return m.style.Notice()
}

// Overlays - видимые подсказки с кнопками действий
func (m *Map) Overlays() []interaction.Overlay {
	m.mu.Lock()
	set := m.set
	showImages := m.props.ShowImages
	m.mu.Unlock()

	out := interaction.Overlays(m.State(), func(id string) (domain.PointRecord, bool) {
		f, ok := set.Find(id)
		if !ok || f.Record == nil {
			return domain.PointRecord{}, false
		}
		return *f.Record, true
	})

	if !showImages || m.images == nil {
		return out
	}
	for i := range out {
		if out[i].Record.ImageURL == nil {
			continue
		}
		if url, ok := m.images.Resolve(*out[i].Record.ImageURL); ok {
			out[i].ImageURL = url
		}
	}
	return out
}

// FlyTo - императивный перелёт камеры
func (m *Map) FlyTo(center orb.Point, zoom float64) bool {
	return m.viewport.FlyTo(center, zoom)
}

// PanTo - перелёт с сохранением текущего зума
func (m *Map) PanTo(center orb.Point) bool {
	return m.viewport.FlyTo(center, m.surface.Camera().Zoom)
}

// FitBounds - императивная подгонка под границы
func (m *Map) FitBounds(b domain.Bounds) bool {
	return m.viewport.FitBounds(b)
}

// ResetInteraction - внешний сброс флага взаимодействия
func (m *Map) ResetInteraction() {
	m.machine.ResetInteraction()
}

func (m *Map) HandleMoveStart() { m.viewport.MoveStart() }
func (m *Map) HandleMoveEnd()   { m.viewport.MoveEnd() }
func (m *Map) HandleDragStart() { m.machine.DragStart() }

// HandlePointerEnter - наведение на фичу, кластеры подсказок не имеют
func (m *Map) HandlePointerEnter(id string) {
	f, ok := m.find(id)
	if !ok || f.IsCluster {
		return
	}
	m.machine.PointerEnter(id)
}

func (m *Map) HandlePointerLeave() { m.machine.PointerLeave() }
func (m *Map) HandleTooltipEnter() { m.machine.TooltipEnter() }
func (m *Map) HandleTooltipLeave() { m.machine.TooltipLeave() }

// HandleClick - клик по точке или серверному кластеру
func (m *Map) HandleClick(id string, input interaction.Input) {
	f, ok := m.find(id)
	if !ok {
		m.logger.Debug("Click on unknown feature", zap.String("id", id))
		return
	}

	if f.IsCluster {
		m.machine.ClusterClick()
		zoom := m.surface.Camera().Zoom + feature.ServerClusterZoomStep
		m.viewport.FlyTo(f.Point, zoom)
		return
	}

	m.machine.Click(id, input)
}

// HandleClientClusterClick - клик по кластеру встроенного кластеризатора
func (m *Map) HandleClientClusterClick(clusterID string, center orb.Point) {
	m.machine.ClusterClick()

	zoom, err := m.surface.ClusterExpansionZoom(clusterID)
	if err != nil {
		m.logger.Warn("Failed to get cluster expansion zoom",
			zap.String("cluster_id", clusterID),
			zap.Error(err))
		return
	}
	m.viewport.FlyTo(center, zoom)
}

// HandleError - ошибка движка, ошибки стиля переключают на спутник
func (m *Map) HandleError(msg string) {
	if def, switched := m.style.HandleError(msg); switched {
		m.surface.SetStyle(def)
	}
}

// ToggleStyle - ручное переключение улицы/спутник
func (m *Map) ToggleStyle() {
	def := m.style.Toggle()
	m.machine.MarkInteracted()
	m.surface.SetStyle(def)
}

// ToggleFullscreen - ручное переключение полноэкранного режима
func (m *Map) ToggleFullscreen() {
	on := m.machine.ToggleFullscreen()
	m.surface.SetFullscreen(on)
}

// ClosePopup закрывает подсказку выбранной точки
func (m *Map) ClosePopup() {
	m.machine.ClosePopup()
}

// Action передаёт действие из подсказки внешнему обработчику
func (m *Map) Action(ctx context.Context, kind domain.ActionKind, id, note string) error {
	if m.actions == nil {
		return nil
	}

	var err error
	switch kind {
	case domain.ActionAddCandidate:
		err = m.actions.AddCandidate(ctx, id)
	case domain.ActionHideCandidate:
		err = m.actions.HideCandidate(ctx, id)
	case domain.ActionRemoveItem:
		err = m.actions.RemoveItem(ctx, id)
	case domain.ActionRemoveMarker:
		err = m.actions.RemoveMarker(ctx, id)
	case domain.ActionUpdateMarkerNote:
		err = m.actions.UpdateMarkerNote(ctx, id, note)
	case domain.ActionSave:
		err = m.actions.Save(ctx, id)
	case domain.ActionVisit:
		err = m.actions.Visit(ctx, id)
	default:
		return errors.ErrInvalidAction.WithDetails(map[string]interface{}{
			"action": string(kind),
		})
	}

	if err != nil {
		m.logger.Error("Map action failed",
			zap.String("action", string(kind)),
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("map action %s: %w", kind, err)
	}
	return nil
}

// Unmount отменяет таймеры и выводит движок из полноэкранного режима
func (m *Map) Unmount() {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return
	}
	m.mounted = false
	m.mu.Unlock()

	m.viewport.Close()
	if m.machine.State().IsFullscreen {
		m.machine.ExitFullscreen()
		m.surface.SetFullscreen(false)
	}
	m.machine.Close()
}
