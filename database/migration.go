package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mbolis/survey-kiosk/store"
)

//go:embed migrations
var dbMigrations embed.FS

func migrateDB(db *sql.DB, dialect string) error {
	src, err := iofs.New(dbMigrations, "migrations/"+dialect)
	if err != nil {
		return err
	}

	var dst migratedb.Driver
	switch dialect {
	case store.DialectSQLite:
		dst, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case store.DialectPostgres:
		dst, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		err = fmt.Errorf("no migrations for dialect %q", dialect)
	}
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", src, dialect, dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// db already up to date
		break
	case err != nil:
		return fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return nil
}
