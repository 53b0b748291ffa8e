// Package database opens the round store's SQLite database via libSQL.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// startupPragmas tune the connection for a single writer with concurrent
// readers: rounds are inserted while the stats endpoints scan. Each pragma
// goes through QueryContext because libSQL rejects Exec for pragmas that
// return rows (journal_mode does, foreign_keys does not); draining rows
// covers both.
var startupPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Open connects to the SQLite file at path (":memory:" in tests), applies
// the startup pragmas and verifies the connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range startupPragmas {
		rows, err := db.QueryContext(ctx, pragma)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", pragma, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
