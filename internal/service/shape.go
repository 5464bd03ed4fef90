package service

import (
	"strings"

	"sensor_events/internal/models"
)

// FileURL maps a stored relative path (audio/YYYY/MM/DD/<id>.<ext>) into the
// static URL space served from baseURL.
func FileURL(baseURL, rel string) string {
	rel = strings.TrimLeft(rel, "/")
	return strings.TrimRight(baseURL, "/") + "/" + rel
}

// toEventOut is the fixed field mapping from a stored event to its public
// shape. latest is nil when the caller did not look it up or none exists.
func toEventOut(ev models.Event, baseURL string, latest *string) models.EventOut {
	return models.EventOut{
		ID:          ev.ID,
		NodeID:      ev.NodeID,
		TsStart:     ev.TsStart,
		TsEnd:       ev.TsEnd,
		Lat:         ev.Lat,
		Lon:         ev.Lon,
		Class:       ev.Class,
		Confidence:  ev.Confidence,
		Features:    ev.Features,
		FileURL:     FileURL(baseURL, ev.FilePath),
		LatestLabel: latest,
	}
}
