package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mbolis/survey-kiosk/config"
	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/store"
)

// Open connects the backend selected by cfg.Driver and brings its schema up
// to date.
func Open(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		return store.NewSQL(db, store.DialectSQLite), nil
	case config.DriverPostgres:
		db, err := OpenPostgres(ctx, cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		return store.NewSQL(db, store.DialectPostgres), nil
	case config.DriverMongo:
		return store.OpenMongo(ctx, cfg.DBUrl, cfg.DBName)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

func OpenSQLite(path string) (db *sql.DB, err error) {
	// foreign_keys is a per-connection pragma, so it goes in the DSN
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err = sql.Open("sqlite3", dsn)
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db, store.DialectSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Debugf("sqlite database ready at %s", path)
	return
}

func OpenPostgres(ctx context.Context, url string) (db *sql.DB, err error) {
	db, err = sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	err = migrateDB(db, store.DialectPostgres)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("postgres database ready")
	return
}
