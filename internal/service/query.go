package service

import (
	"context"

	"sensor_events/internal/geo"
	"sensor_events/internal/models"
	"sensor_events/internal/repository"
)

type QueryService struct {
	events repository.EventRepo
	labels repository.LabelRepo
}

func NewQueryService(events repository.EventRepo, labels repository.LabelRepo) *QueryService {
	return &QueryService{events: events, labels: labels}
}

// buildFilter validates pagination and parses the bounding box.
func buildFilter(q ListQuery) (repository.EventFilter, error) {
	if q.Limit < repository.MinLimit || q.Limit > repository.MaxLimit {
		return repository.EventFilter{}, models.NewClientError(models.CodeInvalidLimit,
			"limit must be between %d and %d", repository.MinLimit, repository.MaxLimit)
	}
	if q.Offset < 0 {
		return repository.EventFilter{}, models.NewClientError(models.CodeInvalidOffset, "offset must be >= 0")
	}
	bbox, err := geo.ParseBBox(q.BBox)
	if err != nil {
		return repository.EventFilter{}, models.NewClientError(models.CodeInvalidBBox, "%v", err)
	}
	return repository.EventFilter{
		From:   q.From,
		To:     q.To,
		Class:  q.Class,
		NodeID: q.NodeID,
		BBox:   bbox,
	}, nil
}

// ListEvents does not join the latest label; one extra lookup per row is
// reserved for single-event reads.
func (s *QueryService) ListEvents(ctx context.Context, q ListQuery) ([]models.EventOut, error) {
	f, err := buildFilter(q)
	if err != nil {
		return nil, err
	}
	evs, err := s.events.List(ctx, f, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]models.EventOut, 0, len(evs))
	for _, ev := range evs {
		out = append(out, toEventOut(ev, q.BaseURL, nil))
	}
	return out, nil
}

// GetEvent returns one event with its latest label.
func (s *QueryService) GetEvent(ctx context.Context, id, baseURL string) (models.EventOut, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return models.EventOut{}, err
	}
	latest, err := s.labels.LatestValue(ctx, ev.ID)
	if err != nil {
		return models.EventOut{}, err
	}
	return toEventOut(ev, baseURL, latest), nil
}
