package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"sensor_events/internal/logger"
	"sensor_events/internal/metrics"
	"sensor_events/internal/models"
	"sensor_events/internal/repository"
)

const defaultUploadName = "upload.bin"

type IngestionService struct {
	media   MediaWriter
	events  repository.EventRepo
	live    Broadcaster
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewIngestionService(media MediaWriter, events repository.EventRepo, live Broadcaster, m *metrics.Metrics, log *logger.Logger) *IngestionService {
	return &IngestionService{media: media, events: events, live: live, metrics: m, log: log}
}

// Ingest writes the media file, inserts the row, then broadcasts. A failed
// file write aborts before any row exists. A failed insert leaves the file
// orphaned and returns a *models.StorageError. Broadcast problems never
// reach the caller.
func (s *IngestionService) Ingest(ctx context.Context, in IngestInput) (models.EventOut, error) {
	if err := validateIngest(&in); err != nil {
		return models.EventOut{}, err
	}

	rel, err := s.media.Save(in.TsStart, in.Filename, in.Data)
	if err != nil {
		s.metrics.Ingested(metrics.ResultMediaError)
		var mwe *models.MediaWriteError
		if !errors.As(err, &mwe) {
			err = &models.MediaWriteError{Op: "save", Err: err}
		}
		if s.log != nil {
			s.log.Errorw("media_write_failed", "err", err, "node_id", in.NodeID)
		}
		return models.EventOut{}, err
	}

	ev, err := s.events.Insert(ctx, models.NewEvent{
		NodeID:     in.NodeID,
		TsStart:    in.TsStart,
		TsEnd:      in.TsEnd,
		Lat:        in.Lat,
		Lon:        in.Lon,
		Class:      in.Class,
		Confidence: in.Confidence,
		Features:   in.Features,
		FilePath:   rel,
	})
	if err != nil {
		s.metrics.Ingested(metrics.ResultStoreError)
		s.metrics.MediaOrphaned()
		var se *models.StorageError
		if !errors.As(err, &se) {
			err = &models.StorageError{Op: "insert event", Err: err}
		}
		if s.log != nil {
			s.log.Warnw("media_orphaned", "err", err, "path", rel, "node_id", in.NodeID)
		}
		return models.EventOut{}, err
	}
	s.metrics.Ingested(metrics.ResultOK)

	out := toEventOut(ev, in.BaseURL, nil)
	s.announce(out)
	return out, nil
}

func (s *IngestionService) announce(out models.EventOut) {
	if s.live == nil {
		return
	}
	msg, err := json.Marshal(out)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("live_marshal_failed", "err", err, "event_id", out.ID)
		}
		return
	}
	n := s.live.Broadcast(msg)
	if s.log != nil {
		s.log.Debugw("event_ingested", "event_id", out.ID, "cls", out.Class, "delivered", n)
	}
}

// validateIngest rejects missing identifiers, non-finite numbers and
// malformed feature payloads. Confidence range and ts_end >= ts_start are
// not checked.
func validateIngest(in *IngestInput) error {
	in.NodeID = strings.TrimSpace(in.NodeID)
	in.Class = strings.TrimSpace(in.Class)
	switch {
	case in.NodeID == "":
		return models.NewClientError(models.CodeMissingField, "node_id is required")
	case in.Class == "":
		return models.NewClientError(models.CodeMissingField, "cls is required")
	case in.TsStart.IsZero() || in.TsEnd.IsZero():
		return models.NewClientError(models.CodeMissingField, "ts_start and ts_end are required")
	}
	for name, v := range map[string]float64{"lat": in.Lat, "lon": in.Lon, "confidence": in.Confidence} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.NewClientError(models.CodeInvalidNumber, "%s must be a finite number", name)
		}
	}
	if len(in.Features) > 0 && !json.Valid(in.Features) {
		return models.NewClientError(models.CodeInvalidFeatJSON, "feat_json is not valid JSON")
	}
	if strings.TrimSpace(in.Filename) == "" {
		in.Filename = defaultUploadName
	}
	return nil
}
