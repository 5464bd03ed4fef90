package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// connection pragmas applied by the driver to every new connection
var pragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// InitDB opens/creates the SQLite database at path and ensures the schema.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// single writer; readers share the same connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func dsn(path string) string {
	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

const schemaEvents = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    node_id TEXT NOT NULL,
    ts_start TEXT NOT NULL,
    ts_end TEXT NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    cls TEXT NOT NULL,
    confidence REAL NOT NULL,
    feat_json TEXT,
    file_path TEXT NOT NULL,
    geom TEXT NOT NULL
);
`

const schemaEventIndexes = `
CREATE INDEX IF NOT EXISTS ix_events_node_id ON events (node_id);
CREATE INDEX IF NOT EXISTS ix_events_ts_start ON events (ts_start);
CREATE INDEX IF NOT EXISTS ix_events_ts_end ON events (ts_end);
CREATE INDEX IF NOT EXISTS ix_events_cls ON events (cls);
CREATE INDEX IF NOT EXISTS ix_events_geom ON events (lon, lat);
`

const schemaLabels = `
CREATE TABLE IF NOT EXISTS labels (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
    label TEXT NOT NULL,
    source TEXT NOT NULL CHECK (source IN ('user', 'system')),
    created_at TEXT NOT NULL
);
`

const schemaLabelIndexes = `
CREATE INDEX IF NOT EXISTS ix_labels_event_id ON labels (event_id);
CREATE INDEX IF NOT EXISTS ix_labels_created_at ON labels (created_at);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// no-op after commit
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaEvents,
		schemaEventIndexes,
		schemaLabels,
		schemaLabelIndexes,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
