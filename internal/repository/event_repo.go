package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"sensor_events/internal/geo"
	"sensor_events/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	eventColumns = `id, node_id, ts_start, ts_end, lat, lon, cls, confidence, feat_json, file_path, geom`

	insertEventSQL = `
		INSERT INTO events (id, node_id, ts_start, ts_end, lat, lon, cls, confidence, feat_json, file_path, geom)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectEventByIDSQL = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
)

// Insert assigns an id, derives the point from (lon, lat) and persists the
// row in its own transaction.
func (r *EventSQLite) Insert(ctx context.Context, in models.NewEvent) (models.Event, error) {
	ev := models.Event{
		ID:         uuid.NewString(),
		NodeID:     in.NodeID,
		TsStart:    in.TsStart.UTC(),
		TsEnd:      in.TsEnd.UTC(),
		Lat:        in.Lat,
		Lon:        in.Lon,
		Class:      in.Class,
		Confidence: in.Confidence,
		Features:   in.Features,
		FilePath:   in.FilePath,
		Geom:       geo.NewPoint(in.Lon, in.Lat).WKT(),
	}

	var feat *string
	if len(ev.Features) > 0 {
		s := string(ev.Features)
		feat = &s
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Event{}, &models.StorageError{Op: "begin insert event", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertEventSQL,
		ev.ID,
		ev.NodeID,
		formatTS(ev.TsStart),
		formatTS(ev.TsEnd),
		ev.Lat,
		ev.Lon,
		ev.Class,
		ev.Confidence,
		feat,
		ev.FilePath,
		ev.Geom,
	); err != nil {
		return models.Event{}, &models.StorageError{Op: "insert event", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Event{}, &models.StorageError{Op: "commit insert event", Err: err}
	}
	return ev, nil
}

// GetByID returns models.ErrNotFound for unknown and malformed ids.
func (r *EventSQLite) GetByID(ctx context.Context, id string) (models.Event, error) {
	key, ok := canonicalID(id)
	if !ok {
		return models.Event{}, models.ErrNotFound
	}
	ev, err := scanEvent(r.db.QueryRowContext(ctx, selectEventByIDSQL, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Event{}, models.ErrNotFound
		}
		return models.Event{}, &models.StorageError{Op: "get event", Err: err}
	}
	return ev, nil
}

// List returns events matching every set filter, newest ts_start first.
// limit is clamped to [MinLimit, MaxLimit]; negative offsets become 0.
func (r *EventSQLite) List(ctx context.Context, f EventFilter, limit, offset int) ([]models.Event, error) {
	q, args := buildListQuery(f, clampLimit(limit), max(offset, 0))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &models.StorageError{Op: "list events", Err: err}
	}
	defer rows.Close()

	out := make([]models.Event, 0, 64)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, &models.StorageError{Op: "scan event", Err: err}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list events", Err: err}
	}
	return out, nil
}

func buildListQuery(f EventFilter, limit, offset int) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if !f.From.IsZero() {
		conds = append(conds, "ts_start >= ?")
		args = append(args, formatTS(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "ts_end <= ?")
		args = append(args, formatTS(f.To))
	}
	if f.Class != "" {
		conds = append(conds, "cls = ?")
		args = append(args, f.Class)
	}
	if f.NodeID != "" {
		conds = append(conds, "node_id = ?")
		args = append(args, f.NodeID)
	}
	if f.BBox != nil {
		// point-vs-envelope intersects, served by ix_events_geom (lon, lat)
		conds = append(conds, "lon >= ? AND lon <= ? AND lat >= ? AND lat <= ?")
		args = append(args, f.BBox.MinLon, f.BBox.MaxLon, f.BBox.MinLat, f.BBox.MaxLat)
	}

	q := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY ts_start DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	return q, args
}

func clampLimit(limit int) int {
	return min(max(limit, MinLimit), MaxLimit)
}

// canonicalID normalizes a textual UUID; ok is false for malformed input.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return u.String(), true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.Event, error) {
	var (
		ev             models.Event
		tsStart, tsEnd string
		feat           sql.NullString
	)
	if err := row.Scan(
		&ev.ID,
		&ev.NodeID,
		&tsStart,
		&tsEnd,
		&ev.Lat,
		&ev.Lon,
		&ev.Class,
		&ev.Confidence,
		&feat,
		&ev.FilePath,
		&ev.Geom,
	); err != nil {
		return models.Event{}, err
	}

	var err error
	if ev.TsStart, err = parseTS(tsStart); err != nil {
		return models.Event{}, err
	}
	if ev.TsEnd, err = parseTS(tsEnd); err != nil {
		return models.Event{}, err
	}
	if feat.Valid && feat.String != "" {
		if json.Valid([]byte(feat.String)) {
			ev.Features = json.RawMessage(feat.String)
		} else {
			// keep raw text visible rather than dropping it
			b, _ := json.Marshal(feat.String)
			ev.Features = b
		}
	}
	return ev, nil
}
