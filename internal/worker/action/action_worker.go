package action

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/domain/repository"
	"github.com/building-discovery/internal/pkg/errors"
	"github.com/building-discovery/internal/usecase"
	"github.com/building-discovery/internal/worker"
)

const (
	maxBatchSize    = 20                     // максимум сообщений за раз
	emptyQueueSleep = 100 * time.Millisecond // пауза если очередь пуста
	retryInterval   = 200 * time.Millisecond
)

// Worker применяет действия карты из stream:map:actions к данным пользователя
type Worker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	actionRepo   repository.ActionRepository
	cacheRepo    repository.CacheRepository
	consumerName string
	maxRetries   int
	idleSleep    time.Duration
}

// NewWorker - cacheRepo может быть nil, тогда кеш не инвалидируется
func NewWorker(
	streamRepo repository.StreamRepository,
	actionRepo repository.ActionRepository,
	cacheRepo repository.CacheRepository,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *Worker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &Worker{
		BaseWorker:   worker.NewBaseWorker("map-actions", consumerGroup, logger),
		streamRepo:   streamRepo,
		actionRepo:   actionRepo,
		cacheRepo:    cacheRepo,
		consumerName: consumerName,
		maxRetries:   maxRetries,
		idleSleep:    emptyQueueSleep,
	}
}

// Start запускает воркер
func (w *Worker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting map action worker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("max_batch_size", maxBatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamMapActions, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.ProcessBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.Sleep(ctx, time.Second)
				continue
			}

			if processed == 0 {
				w.Sleep(ctx, w.idleSleep)
			}
		}
	}
}

// ProcessBatch читает и применяет пачку действий, возвращает число прочитанных сообщений
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(ctx, domain.StreamMapActions, w.ConsumerGroup(), w.consumerName, maxBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	acked := make([]string, 0, len(messages))
	for _, msg := range messages {
		event, err := parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			// битое сообщение не должно застревать в pending
			acked = append(acked, msg.ID)
			continue
		}

		if err := w.apply(ctx, event); err != nil {
			if isPermanent(err) {
				logger.Warn("Dropping action that cannot be applied",
					zap.String("message_id", msg.ID),
					zap.String("action", string(event.Kind)),
					zap.Error(err))
				acked = append(acked, msg.ID)
				continue
			}
			// остаётся в pending до следующей доставки
			logger.Error("Failed to apply action",
				zap.String("message_id", msg.ID),
				zap.String("event_id", event.EventID.String()),
				zap.Error(err))
			continue
		}

		w.invalidate(ctx, event)
		acked = append(acked, msg.ID)
	}

	if err := w.streamRepo.AckMessages(ctx, domain.StreamMapActions, w.ConsumerGroup(), acked); err != nil {
		// не критично: Apply идемпотентен по EventID
		logger.Error("Failed to ack messages", zap.Error(err))
	}

	logger.Debug("Batch processed",
		zap.Int("received", len(messages)),
		zap.Int("acked", len(acked)))

	return len(messages), nil
}

func (w *Worker) apply(ctx context.Context, event domain.ActionEvent) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), uint64(max(w.maxRetries, 0))),
		ctx,
	)
	return backoff.Retry(func() error {
		err := w.actionRepo.Apply(ctx, event)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

func (w *Worker) invalidate(ctx context.Context, event domain.ActionEvent) {
	if w.cacheRepo == nil {
		return
	}
	prefix := usecase.NearbyCachePrefix(event.UserID)
	if _, err := w.cacheRepo.DeleteByPrefix(ctx, prefix); err != nil {
		w.Logger().Warn("Failed to invalidate nearby cache",
			zap.String("prefix", prefix),
			zap.Error(err))
	}
}

func parseMessage(msg domain.StreamMessage) (domain.ActionEvent, error) {
	var event domain.ActionEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal action event: %w", err)
	}
	if !event.Kind.Valid() {
		return event, fmt.Errorf("unknown action %q", event.Kind)
	}
	return event, nil
}

func isPermanent(err error) bool {
	return stderrors.Is(err, errors.ErrInvalidAction) || stderrors.Is(err, errors.ErrInvalidRequest)
}
