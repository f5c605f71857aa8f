package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/domain/repository"
	"github.com/building-discovery/internal/pkg/errors"
)

type statusRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewStatusRepository(db *DB) repository.StatusRepository {
	return &statusRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *statusRepository) FetchStatusMap(ctx context.Context, userID uuid.UUID, ids []string) (map[string]domain.Status, error) {
	query := `
		SELECT building_id, status
		FROM user_buildings
		WHERE user_id = $1
	`
	args := []interface{}{userID}

	if len(ids) > 0 {
		query += " AND building_id = ANY($2)"
		args = append(args, pq.Array(ids))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to fetch status map",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	defer rows.Close()

	statuses := make(map[string]domain.Status)
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			r.logger.Error("Failed to scan status", zap.Error(err))
			continue
		}
		statuses[id] = domain.Status(status)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Status rows iteration failed", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	return statuses, nil
}
