package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/building-discovery/internal/pkg/logger"
)

// DefaultShutdownTimeout - сколько Stop ждёт выхода из Start
const DefaultShutdownTimeout = 30 * time.Second

// WorkerManager запускает воркеры в отдельных горутинах и останавливает их вместе
type WorkerManager struct {
	logger          *zap.Logger
	shutdownTimeout time.Duration

	mu      sync.Mutex
	workers []Worker
	wg      sync.WaitGroup
}

// NewWorkerManager; shutdownTimeout <= 0 означает DefaultShutdownTimeout
func NewWorkerManager(log *zap.Logger, shutdownTimeout time.Duration) *WorkerManager {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &WorkerManager{
		logger:          logger.OrNop(log),
		shutdownTimeout: shutdownTimeout,
	}
}

func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, w)
	m.logger.Info("Worker registered", zap.String("name", w.Name()))
}

func (m *WorkerManager) snapshot() []Worker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Worker(nil), m.workers...)
}

// Start не блокируется. Паника внутри воркера логируется и не роняет процесс.
func (m *WorkerManager) Start(ctx context.Context) error {
	workers := m.snapshot()
	if len(workers) == 0 {
		return fmt.Errorf("no workers registered")
	}

	m.logger.Info("Starting workers", zap.Int("count", len(workers)))

	for _, w := range workers {
		m.wg.Add(1)
		go m.run(ctx, w)
	}
	return nil
}

func (m *WorkerManager) run(ctx context.Context, w Worker) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Worker panicked",
				zap.String("name", w.Name()),
				zap.Any("panic", r))
		}
	}()

	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		m.logger.Error("Worker failed",
			zap.String("name", w.Name()),
			zap.Error(err))
	}
}

// Stop сигналит всем воркерам и ждёт их не дольше shutdownTimeout
func (m *WorkerManager) Stop() error {
	workers := m.snapshot()
	m.logger.Info("Stopping workers", zap.Int("count", len(workers)))

	for _, w := range workers {
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker",
				zap.String("name", w.Name()),
				zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All workers stopped")
		return nil
	case <-time.After(m.shutdownTimeout):
		m.logger.Warn("Workers shutdown timed out",
			zap.Duration("timeout", m.shutdownTimeout))
		return fmt.Errorf("workers shutdown timed out after %v", m.shutdownTimeout)
	}
}
