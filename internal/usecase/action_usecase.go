package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/domain/repository"
	"github.com/building-discovery/internal/pkg/errors"
	"github.com/building-discovery/internal/pkg/logger"
)

// ActionRequest - действие пользователя с карты
type ActionRequest struct {
	UserID       uuid.UUID
	Kind         domain.ActionKind
	TargetID     string
	CollectionID *uuid.UUID
	Note         *string
}

// ActionUseCase публикует действия карты в стрим, применяет их воркер
type ActionUseCase struct {
	streamRepo repository.StreamRepository
	logger     *zap.Logger
	now        func() time.Time
}

func NewActionUseCase(streamRepo repository.StreamRepository, log *zap.Logger) *ActionUseCase {
	return &ActionUseCase{
		streamRepo: streamRepo,
		logger:     logger.OrNop(log),
		now:        time.Now,
	}
}

// Publish проверяет действие и отправляет событие в stream:map:actions
func (uc *ActionUseCase) Publish(ctx context.Context, req ActionRequest) (*domain.ActionEvent, error) {
	if req.UserID == uuid.Nil {
		return nil, errors.ErrSessionRequired
	}
	if !req.Kind.Valid() {
		return nil, errors.ErrInvalidAction.WithDetails(map[string]interface{}{
			"action": string(req.Kind),
		})
	}
	target := strings.TrimSpace(req.TargetID)
	if target == "" {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"field": "id",
		})
	}
	if req.Kind == domain.ActionUpdateMarkerNote && req.Note == nil {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"field": "note",
		})
	}
	// Воркер такое событие отбросит без повторов
	if req.Kind == domain.ActionAddCandidate && (req.CollectionID == nil || *req.CollectionID == uuid.Nil) {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"field": "collection_id",
		})
	}

	event := domain.ActionEvent{
		EventID:      uuid.New(),
		UserID:       req.UserID,
		Kind:         req.Kind,
		TargetID:     target,
		CollectionID: req.CollectionID,
		Note:         req.Note,
		CreatedAt:    uc.now().UTC(),
	}

	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamMapActions, event); err != nil {
		uc.logger.Error("Failed to publish map action",
			zap.String("action", string(req.Kind)),
			zap.String("target_id", target),
			zap.Error(err))
		return nil, fmt.Errorf("publish map action: %w", err)
	}

	uc.logger.Debug("Map action published",
		zap.String("event_id", event.EventID.String()),
		zap.String("action", string(event.Kind)))
	return &event, nil
}

// UserActions - обработчик действий карты для одного пользователя
type UserActions struct {
	uc           *ActionUseCase
	userID       uuid.UUID
	collectionID *uuid.UUID
}

// ForUser привязывает обработчик к пользователю. collectionID нужен для add_candidate.
func (uc *ActionUseCase) ForUser(userID uuid.UUID, collectionID *uuid.UUID) *UserActions {
	return &UserActions{uc: uc, userID: userID, collectionID: collectionID}
}

func (a *UserActions) publish(ctx context.Context, kind domain.ActionKind, id string, note *string) error {
	_, err := a.uc.Publish(ctx, ActionRequest{
		UserID:       a.userID,
		Kind:         kind,
		TargetID:     id,
		CollectionID: a.collectionID,
		Note:         note,
	})
	return err
}

func (a *UserActions) AddCandidate(ctx context.Context, id string) error {
	return a.publish(ctx, domain.ActionAddCandidate, id, nil)
}

func (a *UserActions) HideCandidate(ctx context.Context, id string) error {
	return a.publish(ctx, domain.ActionHideCandidate, id, nil)
}

func (a *UserActions) RemoveItem(ctx context.Context, id string) error {
	return a.publish(ctx, domain.ActionRemoveItem, id, nil)
}

func (a *UserActions) RemoveMarker(ctx context.Context, id string) error {
	return a.publish(ctx, domain.ActionRemoveMarker, id, nil)
}

func (a *UserActions) UpdateMarkerNote(ctx context.Context, id, note string) error {
	return a.publish(ctx, domain.ActionUpdateMarkerNote, id, &note)
}

func (a *UserActions) Save(ctx context.Context, id string) error {
	return a.publish(ctx, domain.ActionSave, id, nil)
}

func (a *UserActions) Visit(ctx context.Context, id string) error {
	return a.publish(ctx, domain.ActionVisit, id, nil)
}
