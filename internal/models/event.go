package models

import (
	"encoding/json"
	"time"
)

// Event is a stored detection. It is never mutated after creation.
type Event struct {
	ID         string
	NodeID     string
	TsStart    time.Time
	TsEnd      time.Time
	Lat        float64
	Lon        float64
	Class      string
	Confidence float64
	Features   json.RawMessage // nil when the sensor sent no feature payload
	FilePath   string          // relative to the storage root, e.g. audio/2024/01/01/<id>.wav
	Geom       string          // WKT POINT(lon lat), derived at insert
}

// NewEvent carries the caller-supplied fields for an insert. ID and Geom are
// assigned by the repository.
type NewEvent struct {
	NodeID     string
	TsStart    time.Time
	TsEnd      time.Time
	Lat        float64
	Lon        float64
	Class      string
	Confidence float64
	Features   json.RawMessage
	FilePath   string
}

// EventOut is the public shape of an event served over HTTP and /live.
type EventOut struct {
	ID          string          `json:"id"`
	NodeID      string          `json:"node_id"`
	TsStart     time.Time       `json:"ts_start"`
	TsEnd       time.Time       `json:"ts_end"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
	Class       string          `json:"cls"`
	Confidence  float64         `json:"confidence"`
	Features    json.RawMessage `json:"feat_json,omitempty"`
	FileURL     string          `json:"file_url"`
	LatestLabel *string         `json:"latest_label"`
}

// EventsOut wraps list responses.
type EventsOut struct {
	Items []EventOut `json:"items"`
}
