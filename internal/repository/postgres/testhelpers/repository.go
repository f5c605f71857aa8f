package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain/repository"
	"github.com/building-discovery/internal/repository/postgres"
)

// NewDBForTest оборачивает тестовое соединение в postgres.DB
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.Wrap(db, logger)
}

// NewPointRepositoryForTest creates a point repository with test database and logger
func NewPointRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.PointRepository {
	return postgres.NewPointRepository(NewDBForTest(db, logger))
}

// NewStatusRepositoryForTest creates a status repository with test database and logger
func NewStatusRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.StatusRepository {
	return postgres.NewStatusRepository(NewDBForTest(db, logger))
}

// NewActionRepositoryForTest creates an action repository with test database and logger
func NewActionRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.ActionRepository {
	return postgres.NewActionRepository(NewDBForTest(db, logger))
}
