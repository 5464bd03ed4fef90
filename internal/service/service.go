package service

import (
	"context"
	"time"

	"sensor_events/internal/logger"
	"sensor_events/internal/metrics"
	"sensor_events/internal/models"
	"sensor_events/internal/repository"
)

// Ingestion stores a new event (file, then row) and announces it live.
type Ingestion interface {
	Ingest(ctx context.Context, in IngestInput) (models.EventOut, error)
}

// Query reads events for the HTTP API.
type Query interface {
	ListEvents(ctx context.Context, q ListQuery) ([]models.EventOut, error)
	GetEvent(ctx context.Context, id, baseURL string) (models.EventOut, error)
}

// Labeling appends labels and reads label history.
type Labeling interface {
	AddLabel(ctx context.Context, id string, in LabelInput) (models.EventOut, error)
	ListLabels(ctx context.Context, id string) ([]models.Label, error)
}

// Health probes the backing store.
type Health interface {
	Check(ctx context.Context) error
}

// MediaWriter persists uploaded media and returns its relative path.
type MediaWriter interface {
	Save(tsStart time.Time, filename string, data []byte) (string, error)
}

// Broadcaster fans a serialized event out to live subscribers.
type Broadcaster interface {
	Broadcast(msg []byte) int
}

type Service struct {
	Ingestion
	Query
	Labeling
	Health
}

// NewService wires the repository layer, media store and live registry into
// concrete services. m and log may be nil.
func NewService(repos *repository.Repository, media MediaWriter, live Broadcaster, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		Ingestion: NewIngestionService(media, repos.EventRepo, live, m, log.Component("ingest")),
		Query:     NewQueryService(repos.EventRepo, repos.LabelRepo),
		Labeling:  NewLabelService(repos.EventRepo, repos.LabelRepo),
		Health:    NewHealthService(repos.HealthRepo),
	}
}
