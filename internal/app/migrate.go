package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andreyxaxa/Domain-Service/migrations"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrateUp applies the embedded schema. It is a no-op when the database is
// already current.
func migrateUp(pgURL string, l logger.Interface) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("app - migrateUp - iofs.New: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(pgURL))
	if err != nil {
		return fmt.Errorf("app - migrateUp - migrate.NewWithSourceInstance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		l.Info("app - migrateUp - no change")

		return nil
	}
	if err != nil {
		return fmt.Errorf("app - migrateUp - m.Up: %w", err)
	}

	l.Info("app - migrateUp - applied")

	return nil
}

func migrateURL(pgURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(pgURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(pgURL, scheme)
		}
	}
	return pgURL
}
