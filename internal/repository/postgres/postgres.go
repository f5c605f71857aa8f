package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/config"
	"github.com/building-discovery/internal/pkg/logger"
)

const (
	pingTimeout  = 5 * time.Second
	pingAttempts = 5
)

// DB - пул соединений с PostGIS
type DB struct {
	*sqlx.DB
	logger *zap.Logger
}

func New(cfg *config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	log = logger.OrNop(log)

	db, err := sqlx.Open("pgx", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// База в docker-compose поднимается дольше сервиса
	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		return db.PingContext(ctx)
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("PostgreSQL not ready, retrying", zap.Duration("wait", wait), zap.Error(err))
	}
	if err := backoff.RetryNotify(ping, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), pingAttempts-1), notify); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DBName))

	return &DB{DB: db, logger: log}, nil
}

// DSN собирает postgres:// URL; пароль экранируется
func DSN(cfg *config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.DBName,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// Wrap оборачивает уже открытое соединение (тесты, миграции)
func Wrap(db *sqlx.DB, log *zap.Logger) *DB {
	return &DB{DB: db, logger: logger.OrNop(log)}
}

// WithTx выполняет fn в транзакции; при ошибке fn транзакция откатывается
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	db.logger.Info("Closing PostgreSQL connection")
	return db.DB.Close()
}

func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
