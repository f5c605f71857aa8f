package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/building-discovery/internal/domain"
)

// StatusRepository - персональные статусы зданий пользователя
type StatusRepository interface {
	// FetchStatusMap возвращает статусы пользователя. Пустой ids - все статусы.
	FetchStatusMap(ctx context.Context, userID uuid.UUID, ids []string) (map[string]domain.Status, error)
}
