package service

import (
	"context"

	"sensor_events/internal/models"
	"sensor_events/internal/repository"
)

type LabelService struct {
	events repository.EventRepo
	labels repository.LabelRepo
}

func NewLabelService(events repository.EventRepo, labels repository.LabelRepo) *LabelService {
	return &LabelService{events: events, labels: labels}
}

// AddLabel validates the source, appends the label and returns the event
// with its refreshed latest label.
func (s *LabelService) AddLabel(ctx context.Context, id string, in LabelInput) (models.EventOut, error) {
	if !models.ValidLabelSource(in.Source) {
		return models.EventOut{}, models.NewClientError(models.CodeInvalidSource, "source must be %q or %q",
			models.LabelSourceUser, models.LabelSourceSystem)
	}
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return models.EventOut{}, err
	}
	if _, err := s.labels.Create(ctx, ev.ID, in.Label, in.Source); err != nil {
		return models.EventOut{}, err
	}
	latest, err := s.labels.LatestValue(ctx, ev.ID)
	if err != nil {
		return models.EventOut{}, err
	}
	return toEventOut(ev, in.BaseURL, latest), nil
}

// ListLabels returns the full label history of an existing event.
func (s *LabelService) ListLabels(ctx context.Context, id string) ([]models.Label, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.labels.List(ctx, ev.ID)
}
