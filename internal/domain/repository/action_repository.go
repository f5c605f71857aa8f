package repository

import (
	"context"

	"github.com/building-discovery/internal/domain"
)

// ActionRepository применяет действия с карты к данным пользователя
type ActionRepository interface {
	// Apply применяет событие. Повторное применение того же EventID ничего не меняет.
	Apply(ctx context.Context, event domain.ActionEvent) error
}
