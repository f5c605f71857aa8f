package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/building-discovery/internal/pkg/logger"
)

// BaseWorker - общая часть воркеров: имя, consumer group и сигнал остановки
type BaseWorker struct {
	name          string
	consumerGroup string
	logger        *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewBaseWorker(name, consumerGroup string, log *zap.Logger) *BaseWorker {
	return &BaseWorker{
		name:          name,
		consumerGroup: consumerGroup,
		logger:        logger.OrNop(log).With(zap.String("worker", name)),
		stopCh:        make(chan struct{}),
	}
}

func (w *BaseWorker) Name() string { return w.name }

// Stop идемпотентен
func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker")
		close(w.stopCh)
	})
	return nil
}

func (w *BaseWorker) IsStopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *BaseWorker) StopChan() <-chan struct{} { return w.stopCh }

func (w *BaseWorker) ConsumerGroup() string { return w.consumerGroup }

func (w *BaseWorker) Logger() *zap.Logger { return w.logger }

// Sleep ждёт d, Stop или отмену ctx. Возвращает false, если ждать дальше не нужно.
func (w *BaseWorker) Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-w.stopCh:
		return false
	}
}
