package repository

import (
	"context"
	"database/sql"
	"time"

	"sensor_events/internal/geo"
	"sensor_events/internal/models"
)

// Pagination bounds for EventRepo.List.
const (
	MinLimit = 1
	MaxLimit = 1000
)

// EventFilter holds the optional, conjunctive list filters. Zero values
// disable a filter.
type EventFilter struct {
	From   time.Time // ts_start >= From
	To     time.Time // ts_end <= To
	Class  string
	NodeID string
	BBox   *geo.Envelope
}

type EventRepo interface {
	Insert(ctx context.Context, e models.NewEvent) (models.Event, error)
	GetByID(ctx context.Context, id string) (models.Event, error)
	List(ctx context.Context, f EventFilter, limit, offset int) ([]models.Event, error)
}

type LabelRepo interface {
	Create(ctx context.Context, eventID, label, source string) (models.Label, error)
	List(ctx context.Context, eventID string) ([]models.Label, error)
	LatestValue(ctx context.Context, eventID string) (*string, error)
}

type HealthRepo interface {
	Ping(ctx context.Context) error
}

type Repository struct {
	EventRepo  EventRepo
	LabelRepo  LabelRepo
	HealthRepo HealthRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo:  NewEventSQLite(db),
		LabelRepo:  NewLabelSQLite(db),
		HealthRepo: NewHealthSQLite(db),
	}
}
