package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"sensor_events/internal/geo"
	"sensor_events/internal/models"
	"sensor_events/internal/repository"
)

// callLog records the order in which collaborators were invoked.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *callLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type fakeMedia struct {
	log      *callLog
	err      error
	gotName  string
	gotTS    time.Time
	gotBytes []byte
}

func (f *fakeMedia) Save(ts time.Time, name string, data []byte) (string, error) {
	f.log.add("media")
	f.gotTS, f.gotName, f.gotBytes = ts, name, data
	if f.err != nil {
		return "", f.err
	}
	return "audio/2024/01/01/fixed.wav", nil
}

type fakeEvents struct {
	log       *callLog
	insertErr error
	inserted  []models.NewEvent

	byID    map[string]models.Event
	getErr  error
	list    []models.Event
	listErr error

	gotFilter repository.EventFilter
	gotLimit  int
	gotOffset int
}

func (f *fakeEvents) Insert(_ context.Context, e models.NewEvent) (models.Event, error) {
	f.log.add("insert")
	if f.insertErr != nil {
		return models.Event{}, f.insertErr
	}
	f.inserted = append(f.inserted, e)
	return models.Event{
		ID: "11111111-1111-1111-1111-111111111111", NodeID: e.NodeID,
		TsStart: e.TsStart, TsEnd: e.TsEnd, Lat: e.Lat, Lon: e.Lon,
		Class: e.Class, Confidence: e.Confidence, Features: e.Features, FilePath: e.FilePath,
	}, nil
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (models.Event, error) {
	if f.getErr != nil {
		return models.Event{}, f.getErr
	}
	ev, ok := f.byID[id]
	if !ok {
		return models.Event{}, models.ErrNotFound
	}
	return ev, nil
}

func (f *fakeEvents) List(_ context.Context, flt repository.EventFilter, limit, offset int) ([]models.Event, error) {
	f.gotFilter, f.gotLimit, f.gotOffset = flt, limit, offset
	if f.listErr != nil || flt.BBox == nil {
		return f.list, f.listErr
	}
	var out []models.Event
	for _, ev := range f.list {
		if flt.BBox.Intersects(geo.NewPoint(ev.Lon, ev.Lat)) {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeLabels struct {
	created   []models.Label
	latest    *string
	createErr error
	latestErr error
	latestN   int
}

func (f *fakeLabels) Create(_ context.Context, eventID, label, source string) (models.Label, error) {
	if f.createErr != nil {
		return models.Label{}, f.createErr
	}
	l := models.Label{ID: "l", EventID: eventID, Label: label, Source: source}
	f.created = append(f.created, l)
	v := label
	f.latest = &v
	return l, nil
}

func (f *fakeLabels) List(_ context.Context, eventID string) ([]models.Label, error) {
	return f.created, nil
}

func (f *fakeLabels) LatestValue(_ context.Context, eventID string) (*string, error) {
	f.latestN++
	return f.latest, f.latestErr
}

type fakeLive struct {
	log  *callLog
	msgs [][]byte
}

func (f *fakeLive) Broadcast(msg []byte) int {
	f.log.add("broadcast")
	f.msgs = append(f.msgs, msg)
	return 1
}

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(context.Context) error { return f.err }

var errBoom = errors.New("boom")
