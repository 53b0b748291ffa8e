// Package migrations embeds the game schema and applies it with goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var schemaFiles embed.FS

// Run brings db up to the latest schema version. It runs at every startup
// and on an already-current database it is a no-op.
func Run(db *sql.DB) error {
	goose.SetBaseFS(schemaFiles)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
