package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"sensor_events/internal/models"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type LabelSQLite struct {
	db *sql.DB

	// last created_at handed out; keeps created_at non-decreasing across
	// wall-clock steps backwards
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewLabelSQLite(db *sql.DB) *LabelSQLite {
	return &LabelSQLite{db: db, now: time.Now}
}

const (
	insertLabelSQL = `
		INSERT INTO labels (id, event_id, label, source, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	selectLabelsSQL = `
		SELECT id, event_id, label, source, created_at
		FROM labels WHERE event_id = ?
		ORDER BY created_at ASC, id ASC
	`

	selectLatestLabelSQL = `
		SELECT label FROM labels WHERE event_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
)

// Create appends a label. A missing event surfaces as models.ErrNotFound;
// a source outside {user, system} is rejected by the CHECK constraint too.
func (r *LabelSQLite) Create(ctx context.Context, eventID, label, source string) (models.Label, error) {
	key, ok := canonicalID(eventID)
	if !ok {
		return models.Label{}, models.ErrNotFound
	}
	id, err := uuid.NewV7()
	if err != nil {
		return models.Label{}, &models.StorageError{Op: "label id", Err: err}
	}
	l := models.Label{
		ID:        id.String(),
		EventID:   key,
		Label:     label,
		Source:    source,
		CreatedAt: r.nextCreatedAt(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Label{}, &models.StorageError{Op: "begin create label", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertLabelSQL, l.ID, l.EventID, l.Label, l.Source, formatTS(l.CreatedAt)); err != nil {
		switch constraintKind(err) {
		case constraintForeignKey:
			return models.Label{}, models.ErrNotFound
		case constraintCheck:
			return models.Label{}, models.NewClientError(models.CodeInvalidSource, "source must be user or system")
		}
		return models.Label{}, &models.StorageError{Op: "insert label", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Label{}, &models.StorageError{Op: "commit create label", Err: err}
	}
	return l, nil
}

// List returns the full history ordered by (created_at, id) ascending.
func (r *LabelSQLite) List(ctx context.Context, eventID string) ([]models.Label, error) {
	key, ok := canonicalID(eventID)
	if !ok {
		return nil, models.ErrNotFound
	}
	rows, err := r.db.QueryContext(ctx, selectLabelsSQL, key)
	if err != nil {
		return nil, &models.StorageError{Op: "list labels", Err: err}
	}
	defer rows.Close()

	out := make([]models.Label, 0, 8)
	for rows.Next() {
		var (
			l  models.Label
			ts string
		)
		if err := rows.Scan(&l.ID, &l.EventID, &l.Label, &l.Source, &ts); err != nil {
			return nil, &models.StorageError{Op: "scan label", Err: err}
		}
		if l.CreatedAt, err = parseTS(ts); err != nil {
			return nil, &models.StorageError{Op: "scan label", Err: err}
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list labels", Err: err}
	}
	return out, nil
}

// LatestValue returns the label text with the greatest (created_at, id), or
// nil when the event has no labels.
func (r *LabelSQLite) LatestValue(ctx context.Context, eventID string) (*string, error) {
	key, ok := canonicalID(eventID)
	if !ok {
		return nil, models.ErrNotFound
	}
	var v string
	if err := r.db.QueryRowContext(ctx, selectLatestLabelSQL, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &models.StorageError{Op: "latest label", Err: err}
	}
	return &v, nil
}

func (r *LabelSQLite) nextCreatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.now().UTC()
	if t.Before(r.last) {
		t = r.last
	}
	r.last = t
	return t
}

type constraint int

const (
	constraintNone constraint = iota
	constraintForeignKey
	constraintCheck
)

func constraintKind(err error) constraint {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return constraintForeignKey
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return constraintCheck
		}
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return constraintForeignKey
	case strings.Contains(msg, "CHECK constraint failed"):
		return constraintCheck
	}
	return constraintNone
}
