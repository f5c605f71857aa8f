package viewport

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/pkg/scheduler"
)

type fakeCamera struct {
	bounds domain.Bounds
	camera domain.Camera

	stops   int
	fits    []domain.Bounds
	flights []domain.Camera
}

func (f *fakeCamera) Bounds() domain.Bounds { return f.bounds }
func (f *fakeCamera) Camera() domain.Camera { return f.camera }
func (f *fakeCamera) Stop()                 { f.stops++ }

func (f *fakeCamera) FitBounds(b domain.Bounds) {
	f.fits = append(f.fits, b)
}

func (f *fakeCamera) FlyTo(center orb.Point, zoom float64) {
	f.flights = append(f.flights, domain.Camera{Center: center, Zoom: zoom})
}

// complete применяет последнюю анимацию так, как это сделал бы движок
func (f *fakeCamera) complete(c *Controller) {
	if n := len(f.fits); n > 0 {
		f.bounds = f.fits[n-1]
	}
	if n := len(f.flights); n > 0 {
		f.camera = f.flights[n-1]
	}
	c.MoveEnd()
}

func unitBounds() domain.Bounds {
	return domain.Bounds{North: 1, South: 0, East: 1, West: 0}
}

func newTestController(cam *fakeCamera, opts Options) (*Controller, *scheduler.Manual) {
	sched := scheduler.NewManual()
	return NewController(cam, sched, opts, nil), sched
}

func TestFitBounds_NoOpWhenAlreadyThere(t *testing.T) {
	cam := &fakeCamera{bounds: unitBounds()}
	c, sched := newTestController(cam, Options{})

	started := c.FitBounds(unitBounds())

	assert.False(t, started)
	assert.False(t, c.IsMoving())
	assert.Empty(t, cam.fits)
	assert.Zero(t, cam.stops)
	assert.Zero(t, sched.Pending())
}

func TestFitBounds_WithinEpsilonIsNoOp(t *testing.T) {
	cam := &fakeCamera{bounds: unitBounds()}
	c, _ := newTestController(cam, Options{})

	b := unitBounds()
	b.North += BoundsEpsilon / 2
	assert.False(t, c.FitBounds(b))

	b.North += BoundsEpsilon * 10
	assert.True(t, c.FitBounds(b))
}

func TestFitBounds_TwiceTriggersOneTransition(t *testing.T) {
	cam := &fakeCamera{bounds: domain.Bounds{North: 10, South: 5, East: 10, West: 5}}
	c, _ := newTestController(cam, Options{})

	assert.True(t, c.FitBounds(unitBounds()))
	assert.True(t, c.IsMoving())
	assert.Equal(t, 1, cam.stops)

	assert.False(t, c.FitBounds(unitBounds()), "dropped while moving")
	cam.complete(c)
	assert.False(t, c.FitBounds(unitBounds()), "already at target")

	assert.Len(t, cam.fits, 1)
}

func TestRequestsDroppedWhileUserGesture(t *testing.T) {
	cam := &fakeCamera{camera: domain.Camera{Center: orb.Point{2, 41}, Zoom: 10}}
	c, _ := newTestController(cam, Options{})

	c.MoveStart()
	assert.False(t, c.FlyTo(orb.Point{3, 42}, 12))
	assert.Empty(t, cam.flights)

	c.MoveEnd()
	assert.True(t, c.FlyTo(orb.Point{3, 42}, 12))
	assert.Len(t, cam.flights, 1)
}

func TestFlyTo_Epsilon(t *testing.T) {
	cam := &fakeCamera{camera: domain.Camera{Center: orb.Point{2, 41}, Zoom: 10}}
	c, _ := newTestController(cam, Options{})

	assert.False(t, c.FlyTo(orb.Point{2, 41}, 10.005))
	assert.True(t, c.FlyTo(orb.Point{2, 41}, 10.5))
}

func TestWatchdogClearsStuckAnimation(t *testing.T) {
	cam := &fakeCamera{}
	c, sched := newTestController(cam, Options{WatchdogTimeout: 3 * time.Second})

	require.True(t, c.FitBounds(unitBounds()))
	assert.True(t, c.IsMoving())

	sched.Advance(2 * time.Second)
	assert.True(t, c.IsMoving())

	sched.Advance(time.Second)
	assert.False(t, c.IsMoving())

	assert.True(t, c.FlyTo(orb.Point{1, 1}, 5), "controller accepts requests again")
}

func TestWatchdogCancelledByMoveEnd(t *testing.T) {
	var events int
	cam := &fakeCamera{}
	c, sched := newTestController(cam, Options{
		OnBoundsChange: func(domain.Bounds) { events++ },
	})

	require.True(t, c.FitBounds(unitBounds()))
	cam.complete(c)
	assert.Equal(t, 0, sched.Pending())

	// новая анимация не должна быть сброшена старым таймером
	require.True(t, c.FlyTo(orb.Point{5, 5}, 4))
	sched.Advance(DefaultWatchdogTimeout - time.Millisecond)
	assert.True(t, c.IsMoving())
	assert.Equal(t, 1, events)
}

func TestNotificationsOnlyOnMoveEnd(t *testing.T) {
	var bounds []domain.Bounds
	var regions []domain.Region
	cam := &fakeCamera{camera: domain.Camera{Center: orb.Point{2.17, 41.39}, Zoom: 12}}
	c, _ := newTestController(cam, Options{
		OnBoundsChange: func(b domain.Bounds) { bounds = append(bounds, b) },
		OnRegionChange: func(r domain.Region) { regions = append(regions, r) },
	})

	c.MoveStart()
	assert.Empty(t, bounds)
	assert.Empty(t, regions)

	cam.bounds = unitBounds()
	c.MoveEnd()
	require.Len(t, bounds, 1)
	require.Len(t, regions, 1)
	assert.Equal(t, unitBounds(), bounds[0])
	assert.Equal(t, domain.Region{Lat: 41.39, Lng: 2.17, Zoom: 12}, regions[0])
}

func TestClose(t *testing.T) {
	cam := &fakeCamera{}
	c, sched := newTestController(cam, Options{})

	require.True(t, c.FitBounds(unitBounds()))
	c.Close()

	assert.Equal(t, 0, sched.Pending())
	assert.False(t, c.IsMoving())
	assert.False(t, c.FlyTo(orb.Point{1, 1}, 3))
}

func TestOpenAfterClose(t *testing.T) {
	cam := &fakeCamera{}
	c, _ := newTestController(cam, Options{})

	c.Close()
	c.Open()

	assert.True(t, c.FlyTo(orb.Point{1, 1}, 3))
	assert.True(t, c.IsMoving())
}
