package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/records-service/internal/config"
	"github.com/iliyamo/records-service/internal/database"
)

// openDB connects to the configured store and applies the schema.
func openDB(ctx context.Context, c config.Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch c.DBDriver {
	case "sqlite":
		db, err = database.OpenSQLite(c.SQLitePath)
	default:
		db, err = database.Open(c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.DBDriver, err)
	}

	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.Migrate(mctx, db, c.DBDriver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("database ready (driver=%s)", c.DBDriver)
	return db, nil
}
