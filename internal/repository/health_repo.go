package repository

import (
	"context"
	"database/sql"
)

type HealthSQLite struct {
	db *sql.DB
}

func NewHealthSQLite(db *sql.DB) *HealthSQLite { return &HealthSQLite{db: db} }

// Ping runs one trivial round-trip.
func (r *HealthSQLite) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
