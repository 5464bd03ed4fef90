package service

import (
	"encoding/json"
	"time"
)

// IngestInput is one submitted event with its media payload.
type IngestInput struct {
	NodeID     string
	TsStart    time.Time
	TsEnd      time.Time
	Lat        float64
	Lon        float64
	Class      string
	Confidence float64
	Features   json.RawMessage // optional; must be valid JSON when set
	Filename   string          // client filename, only its extension is kept
	Data       []byte
	BaseURL    string // scheme://host used to build file_url
}

// ListQuery carries raw list parameters. Zero times and empty strings
// disable the corresponding filter.
type ListQuery struct {
	From    time.Time
	To      time.Time
	Class   string
	NodeID  string
	BBox    string // "min_lon,min_lat,max_lon,max_lat"
	Limit   int    // 1..1000
	Offset  int    // >= 0
	BaseURL string
}

// LabelInput is a label append request.
type LabelInput struct {
	Label   string
	Source  string // user | system
	BaseURL string
}
