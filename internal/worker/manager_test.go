package worker

import (
	"context"
	"sync/atomic"
	"time"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type loopWorker struct {
	*BaseWorker
	started atomic.Int32
}

func (w *loopWorker) Start(ctx context.Context) error {
	w.started.Add(1)
	select {
	case <-w.StopChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestWorkerManager_NoWorkers(t *testing.T) {
	m := NewWorkerManager(zap.NewNop(), time.Second)
	assert.Error(t, m.Start(context.Background()))
}

func TestWorkerManager_StartStop(t *testing.T) {
	m := NewWorkerManager(zap.NewNop(), time.Second)
	a := &loopWorker{BaseWorker: NewBaseWorker("a", "g", zap.NewNop())}
	b := &loopWorker{BaseWorker: NewBaseWorker("b", "g", zap.NewNop())}
	m.Register(a)
	m.Register(b)

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop())

	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())
	assert.Equal(t, "g", a.ConsumerGroup())
}

type panicWorker struct {
	*BaseWorker
}

func (w *panicWorker) Start(context.Context) error {
	panic("boom")
}

func TestWorkerManager_PanicDoesNotEscape(t *testing.T) {
	m := NewWorkerManager(zap.NewNop(), time.Second)
	m.Register(&panicWorker{BaseWorker: NewBaseWorker("p", "g", nil)})

	require.NoError(t, m.Start(context.Background()))
	assert.NoError(t, m.Stop())
}

func TestWorkerManager_ShutdownTimeout(t *testing.T) {
	m := NewWorkerManager(zap.NewNop(), 50*time.Millisecond)
	block := make(chan struct{})
	defer close(block)
	m.Register(&stuckWorker{BaseWorker: NewBaseWorker("s", "g", nil), block: block})

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Stop())
}

type stuckWorker struct {
	*BaseWorker
	block chan struct{}
}

func (w *stuckWorker) Start(context.Context) error {
	<-w.block
	return nil
}

func TestBaseWorker_Sleep(t *testing.T) {
	w := NewBaseWorker("s", "g", nil)
	assert.True(t, w.Sleep(context.Background(), time.Millisecond))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())
	assert.False(t, w.Sleep(context.Background(), time.Hour))
}
