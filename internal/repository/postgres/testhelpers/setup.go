package testhelpers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/building-discovery/internal/config"
	"github.com/building-discovery/internal/repository/postgres"
)

// Таблицы в порядке, безопасном для TRUNCATE
var truncateOrder = []string{
	"map_action_log",
	"user_markers",
	"hidden_candidates",
	"collection_items",
	"user_buildings",
	"buildings",
}

// TestDB - соединение с тестовой PostGIS
type TestDB struct {
	DB     *sqlx.DB
	Logger *zap.Logger
}

// SetupTestDB подключается к базе из TEST_DB_*; без TEST_DB_HOST тест пропускается
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST is not set, skipping database tests")
	}

	port, err := strconv.Atoi(getEnv("TEST_DB_PORT", "5433"))
	if err != nil {
		t.Fatalf("bad TEST_DB_PORT: %v", err)
	}
	dsn := postgres.DSN(&config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBName:   getEnv("TEST_DB_NAME", "discovery_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	})

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = time.Minute

	db, err := backoff.RetryNotifyWithData(func() (*sqlx.DB, error) {
		return sqlx.Connect("postgres", dsn)
	}, policy, func(err error, wait time.Duration) {
		t.Logf("database not ready, retry in %v: %v", wait, err)
	})
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}

	var version string
	if err := db.Get(&version, "SELECT PostGIS_Version()"); err != nil {
		t.Fatalf("PostGIS not available: %v", err)
	}
	t.Logf("PostGIS %s", version)

	return &TestDB{
		DB:     db,
		Logger: zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)),
	}
}

func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		_ = tdb.DB.Close()
	}
}

// Cleanup очищает все таблицы сервиса; отсутствующие таблицы пропускаются
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	for _, table := range truncateOrder {
		var exists bool
		if err := tdb.DB.GetContext(ctx, &exists, `SELECT to_regclass($1) IS NOT NULL`, table); err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if !exists {
			continue
		}
		if _, err := tdb.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
