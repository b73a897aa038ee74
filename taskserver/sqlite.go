package taskserver

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // register sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id               INTEGER PRIMARY KEY,
	descripcion      TEXT    NOT NULL,
	descripcion_norm TEXT    NOT NULL UNIQUE,
	completada       INTEGER NOT NULL DEFAULT 0,
	prioridad        TEXT    NOT NULL DEFAULT 'Media',
	fecha_creacion   TEXT    NOT NULL DEFAULT ''
);
`

var sqliteDialect = dialect{
	name:     "sqlite",
	schema:   sqliteSchema,
	rebind:   questionMarks,
	isUnique: isSQLiteUniqueError,
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs
// schema migrations. Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, opts ...StoreOption) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	return newSQLStore(db, sqliteDialect, opts...)
}

// isSQLiteUniqueError returns true if the error is a SQLite UNIQUE constraint violation.
func isSQLiteUniqueError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
