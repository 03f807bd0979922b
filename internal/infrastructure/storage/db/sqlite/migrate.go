package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/barterbay/barterd/internal/infrastructure/storage/db/sqlite/migrations"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const sqliteDriver = "sqlite"

// migrateDb applies the embedded migrations to the open handle. The migrate
// instance is not closed since that would close sqlDB too.
func migrateDb(sqlDB *sql.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	d, err := sqlitemigrate.WithInstance(sqlDB, &sqlitemigrate.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, sqliteDriver, d)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return source.Close()
}
