package repository

import (
	"context"

	"github.com/building-discovery/internal/domain"
)

// StreamRepository - стрим действий карты: публикация и пакетное чтение через consumer group
type StreamRepository interface {
	// ConsumeBatch читает до maxCount новых сообщений без ожидания
	ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error)

	// AckMessages подтверждает обработку нескольких сообщений
	AckMessages(ctx context.Context, stream, group string, messageIDs []string) error

	// CreateConsumerGroup создаёт consumer group
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// PublishToStream публикует сообщение в стрим
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
