package testhelpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
)

// LoadFixtures выполняет SQL-файлы из dir в заданном порядке
func LoadFixtures(ctx context.Context, db *sqlx.DB, dir string, files ...string) error {
	for _, name := range files {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read fixture %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("load fixture %s: %w", name, err)
		}
	}
	return nil
}
