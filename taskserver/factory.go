package taskserver

import "strings"

// OpenStore picks the backend from dsn: postgres:// and postgresql:// URLs
// open a PostgresStore, anything else is a SQLite path. An empty dsn opens an
// in-memory SQLite database.
func OpenStore(dsn string, opts ...StoreOption) (*SQLStore, error) {
	switch {
	case dsn == "":
		return NewSQLiteStore(":memory:", opts...)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(dsn, opts...)
	default:
		return NewSQLiteStore(dsn, opts...)
	}
}
