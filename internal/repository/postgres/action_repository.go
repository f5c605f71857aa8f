package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/domain/repository"
	"github.com/building-discovery/internal/pkg/errors"
)

type actionRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewActionRepository(db *DB) repository.ActionRepository {
	return &actionRepository{
		db:     db,
		logger: db.logger,
	}
}

func (r *actionRepository) Apply(ctx context.Context, event domain.ActionEvent) error {
	if !event.Kind.Valid() {
		return errors.ErrInvalidAction
	}
	if event.Kind == domain.ActionAddCandidate && event.CollectionID == nil {
		return errors.ErrInvalidAction.WithDetails(map[string]interface{}{
			"reason": "collection_id is required for add_candidate",
		})
	}

	var duplicate bool
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO map_action_log (event_id, user_id, action, target_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (event_id) DO NOTHING
		`, event.EventID, event.UserID, string(event.Kind), event.TargetID)
		if err != nil {
			return fmt.Errorf("log map action: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			duplicate = true
			return nil
		}
		return r.applyKind(ctx, tx, event)
	})
	if err != nil {
		r.logger.Error("Failed to apply map action",
			zap.String("action", string(event.Kind)),
			zap.String("target_id", event.TargetID),
			zap.Error(err))
		return errors.ErrDatabaseError
	}

	if duplicate {
		r.logger.Debug("Map action already applied",
			zap.String("event_id", event.EventID.String()))
	}

	return nil
}

func (r *actionRepository) applyKind(ctx context.Context, tx *sqlx.Tx, e domain.ActionEvent) error {
	var err error
	switch e.Kind {
	case domain.ActionSave:
		err = upsertStatus(ctx, tx, e, domain.StatusPending)
	case domain.ActionVisit:
		err = upsertStatus(ctx, tx, e, domain.StatusVisited)
	case domain.ActionRemoveItem:
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM user_buildings WHERE user_id = $1 AND building_id = $2`,
			e.UserID, e.TargetID); err == nil {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM collection_items WHERE user_id = $1 AND building_id = $2`,
				e.UserID, e.TargetID)
		}
	case domain.ActionHideCandidate:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO hidden_candidates (user_id, building_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, building_id) DO NOTHING
		`, e.UserID, e.TargetID)
	case domain.ActionAddCandidate:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO collection_items (collection_id, user_id, building_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (collection_id, building_id) DO NOTHING
		`, *e.CollectionID, e.UserID, e.TargetID)
	case domain.ActionRemoveMarker:
		_, err = tx.ExecContext(ctx,
			`DELETE FROM user_markers WHERE id = $1 AND user_id = $2`,
			e.TargetID, e.UserID)
	case domain.ActionUpdateMarkerNote:
		_, err = tx.ExecContext(ctx,
			`UPDATE user_markers SET note = $1 WHERE id = $2 AND user_id = $3`,
			e.Note, e.TargetID, e.UserID)
	default:
		return fmt.Errorf("unsupported action %q", e.Kind)
	}
	return err
}

func upsertStatus(ctx context.Context, tx *sqlx.Tx, e domain.ActionEvent, status domain.Status) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_buildings (user_id, building_id, status, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, building_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
	`, e.UserID, e.TargetID, string(status))
	return err
}
