package viewport

import (
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/pkg/scheduler"
)

const (
	DefaultWatchdogTimeout = 3 * time.Second

	BoundsEpsilon = 1e-6
	CenterEpsilon = 1e-6
	ZoomEpsilon   = 0.01
)

// Camera - часть движка карты, которой управляет контроллер
type Camera interface {
	Bounds() domain.Bounds
	Camera() domain.Camera
	Stop()
	FitBounds(b domain.Bounds)
	FlyTo(center orb.Point, zoom float64)
}

// Options - таймаут сторожевого таймера и коллбеки окончания движения
type Options struct {
	WatchdogTimeout time.Duration
	OnBoundsChange  func(domain.Bounds)
	OnRegionChange  func(domain.Region)
}

// Controller следит за движением камеры: пока идёт анимация, новые запросы
// отбрасываются, повторный запрос к текущему виду ничего не делает.
type Controller struct {
	cam    Camera
	sched  scheduler.Scheduler
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	moving   bool
	watchdog scheduler.Timer
	gen      uint64
	closed   bool
}

func NewController(cam Camera, sched scheduler.Scheduler, opts Options, log *zap.Logger) *Controller {
	if sched == nil {
		sched = scheduler.Real()
	}
	if opts.WatchdogTimeout <= 0 {
		opts.WatchdogTimeout = DefaultWatchdogTimeout
	}
	return &Controller{
		cam:    cam,
		sched:  sched,
		opts:   opts,
		logger: logger.OrNop(log),
	}
}

// FitBounds подгоняет карту под границы. true - анимация запущена.
func (c *Controller) FitBounds(target domain.Bounds) bool {
	if !c.acceptRequest() {
		c.logger.Debug("fitBounds dropped, map is moving")
		return false
	}
	if BoundsEqual(c.cam.Bounds(), target) {
		return false
	}

	c.cam.Stop()
	c.startMoving()
	c.cam.FitBounds(target)
	return true
}

// FlyTo перемещает камеру в точку. true - анимация запущена.
func (c *Controller) FlyTo(center orb.Point, zoom float64) bool {
	if !c.acceptRequest() {
		c.logger.Debug("flyTo dropped, map is moving")
		return false
	}
	if CameraEqual(c.cam.Camera(), domain.Camera{Center: center, Zoom: zoom}) {
		return false
	}

	c.cam.Stop()
	c.startMoving()
	c.cam.FlyTo(center, zoom)
	return true
}

func (c *Controller) acceptRequest() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && !c.moving
}

// MoveStart - движок начал движение (анимация или жест пользователя)
func (c *Controller) MoveStart() {
	c.startMoving()
}

func (c *Controller) startMoving() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.moving = true
	c.armWatchdogLocked()
}

func (c *Controller) armWatchdogLocked() {
	if c.watchdog != nil {
		c.watchdog.Stop()
	}
	c.gen++
	gen := c.gen
	c.watchdog = c.sched.AfterFunc(c.opts.WatchdogTimeout, func() {
		c.expireWatchdog(gen)
	})
}

func (c *Controller) expireWatchdog(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || !c.moving {
		return
	}
	c.moving = false
	c.watchdog = nil
	c.logger.Warn("Camera animation did not complete, clearing moving flag",
		zap.Duration("timeout", c.opts.WatchdogTimeout))
}

// MoveEnd - движок закончил движение. Только здесь наружу уходят
// новые границы и регион.
func (c *Controller) MoveEnd() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.moving = false
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	c.gen++
	c.mu.Unlock()

	if c.opts.OnBoundsChange != nil {
		c.opts.OnBoundsChange(c.cam.Bounds())
	}
	if c.opts.OnRegionChange != nil {
		c.opts.OnRegionChange(c.cam.Camera().Region())
	}
}

// IsMoving - идёт ли сейчас движение камеры
func (c *Controller) IsMoving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moving
}

// Close отменяет сторожевой таймер, дальнейшие запросы игнорируются
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.moving = false
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
}

// Open снова принимает запросы после Close
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = false
}

// BoundsEqual сравнивает все четыре края с точностью BoundsEpsilon
func BoundsEqual(a, b domain.Bounds) bool {
	return near(a.North, b.North, BoundsEpsilon) &&
		near(a.South, b.South, BoundsEpsilon) &&
		near(a.East, b.East, BoundsEpsilon) &&
		near(a.West, b.West, BoundsEpsilon)
}

// CameraEqual сравнивает центр и зум
func CameraEqual(a, b domain.Camera) bool {
	return near(a.Center.Lat(), b.Center.Lat(), CenterEpsilon) &&
		near(a.Center.Lon(), b.Center.Lon(), CenterEpsilon) &&
		near(a.Zoom, b.Zoom, ZoomEpsilon)
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
