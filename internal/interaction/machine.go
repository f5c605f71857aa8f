package interaction

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/pkg/scheduler"
)

const (
	DefaultHoverDismissDelay = 300 * time.Millisecond
	DefaultResizeDelay       = 100 * time.Millisecond
)

// Input - тип устройства ввода, от которого пришёл клик
type Input string

const (
	InputMouse Input = "mouse"
	InputTouch Input = "touch"
)

// State - снимок состояния взаимодействия экземпляра карты.
// IsSatellite и IsMapMoving заполняет владелец машины из контроллеров
// стиля и камеры.
type State struct {
	SelectedID        string `json:"selected_id,omitempty"`
	HoveredID         string `json:"hovered_id,omitempty"`
	IsFullscreen      bool   `json:"is_fullscreen"`
	IsSatellite       bool   `json:"is_satellite"`
	IsMapMoving       bool   `json:"is_map_moving"`
	UserHasInteracted bool   `json:"user_has_interacted"`
}

// Options - задержки и коллбеки машины состояний
type Options struct {
	HoverDismissDelay time.Duration
	ResizeDelay       time.Duration

	OnMarkerClick func(id string)
	OnInteraction func()
	OnClosePopup  func()
	OnResize      func()
}

// Machine - машина состояний выбора, наведения и переключателей карты
type Machine struct {
	sched  scheduler.Scheduler
	opts   Options
	logger *zap.Logger

	mu          sync.Mutex
	state       State
	hoverTimer  scheduler.Timer
	resizeTimer scheduler.Timer
}

func NewMachine(sched scheduler.Scheduler, opts Options, log *zap.Logger) *Machine {
	if sched == nil {
		sched = scheduler.Real()
	}
	if opts.HoverDismissDelay <= 0 {
		opts.HoverDismissDelay = DefaultHoverDismissDelay
	}
	if opts.ResizeDelay <= 0 {
		opts.ResizeDelay = DefaultResizeDelay
	}
	return &Machine{
		sched:  sched,
		opts:   opts,
		logger: logger.OrNop(log),
	}
}

// State возвращает копию текущего состояния
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// PointerEnter - указатель над точкой (не кластером)
func (m *Machine) PointerEnter(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelHoverLocked()
	m.state.HoveredID = id
}

// PointerLeave - указатель ушёл с точки, подсказка скрывается после задержки
func (m *Machine) PointerLeave() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scheduleHoverDismissLocked()
}

// TooltipEnter - указатель перешёл на подсказку, скрытие отменяется
func (m *Machine) TooltipEnter() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelHoverLocked()
}

// TooltipLeave - указатель ушёл с подсказки
func (m *Machine) TooltipLeave() {
	m.PointerLeave()
}

func (m *Machine) scheduleHoverDismissLocked() {
	m.cancelHoverLocked()
	if m.state.HoveredID == "" {
		return
	}

	var t scheduler.Timer
	t = m.sched.AfterFunc(m.opts.HoverDismissDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.hoverTimer != t {
			return
		}
		m.hoverTimer = nil
		m.state.HoveredID = ""
	})
	m.hoverTimer = t
}

func (m *Machine) cancelHoverLocked() {
	if m.hoverTimer != nil {
		m.hoverTimer.Stop()
		m.hoverTimer = nil
	}
}

// Click - клик по точке. На сенсорном вводе первый тап только выбирает точку,
// основное действие выполняет повторный тап по уже выбранной.
// true - выполнено основное действие.
func (m *Machine) Click(id string, input Input) bool {
	m.mu.Lock()
	m.state.UserHasInteracted = true

	if input == InputTouch && m.state.SelectedID != id {
		m.cancelHoverLocked()
		m.state.SelectedID = id
		m.state.HoveredID = id
		m.mu.Unlock()

		m.notifyInteraction()
		return false
	}

	m.state.SelectedID = id
	m.mu.Unlock()

	m.notifyInteraction()
	if m.opts.OnMarkerClick != nil {
		m.opts.OnMarkerClick(id)
	}
	return true
}

// ClusterClick - клик по кластеру выбор не меняет
func (m *Machine) ClusterClick() {
	m.MarkInteracted()
}

// Highlight - внешняя подсветка всегда перезаписывает выбор
func (m *Machine) Highlight(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.SelectedID = id
}

// ClosePopup закрывает постоянную подсказку выбранной точки
func (m *Machine) ClosePopup() {
	m.mu.Lock()
	had := m.state.SelectedID != ""
	m.state.SelectedID = ""
	m.mu.Unlock()

	if had && m.opts.OnClosePopup != nil {
		m.opts.OnClosePopup()
	}
}

// DragStart - пользователь начал перетаскивать карту
func (m *Machine) DragStart() {
	m.MarkInteracted()
}

// MarkInteracted фиксирует жест пользователя
func (m *Machine) MarkInteracted() {
	m.mu.Lock()
	m.state.UserHasInteracted = true
	m.mu.Unlock()

	m.notifyInteraction()
}

// ResetInteraction - внешний сброс флага взаимодействия
func (m *Machine) ResetInteraction() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UserHasInteracted = false
}

func (m *Machine) notifyInteraction() {
	if m.opts.OnInteraction != nil {
		m.opts.OnInteraction()
	}
}

// ToggleFullscreen переключает полноэкранный режим и после задержки
// просит движок пересчитать размер
func (m *Machine) ToggleFullscreen() bool {
	m.mu.Lock()
	m.state.IsFullscreen = !m.state.IsFullscreen
	m.state.UserHasInteracted = true
	on := m.state.IsFullscreen
	m.scheduleResizeLocked()
	m.mu.Unlock()

	m.notifyInteraction()
	return on
}

// ExitFullscreen выходит из полноэкранного режима без отметки о жесте
func (m *Machine) ExitFullscreen() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.IsFullscreen {
		return
	}
	m.state.IsFullscreen = false
	m.scheduleResizeLocked()
}

func (m *Machine) scheduleResizeLocked() {
	if m.resizeTimer != nil {
		m.resizeTimer.Stop()
	}

	var t scheduler.Timer
	t = m.sched.AfterFunc(m.opts.ResizeDelay, func() {
		m.mu.Lock()
		current := m.resizeTimer == t
		if current {
			m.resizeTimer = nil
		}
		m.mu.Unlock()

		if current && m.opts.OnResize != nil {
			m.opts.OnResize()
		}
	})
	m.resizeTimer = t
}

// Close отменяет все отложенные вызовы и сбрасывает состояние к начальному
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelHoverLocked()
	if m.resizeTimer != nil {
		m.resizeTimer.Stop()
		m.resizeTimer = nil
	}
	m.state = State{}
}
