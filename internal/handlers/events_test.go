package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sensor_events/internal/models"
)

func multipartBody(t *testing.T, fields map[string]string, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "-" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(data)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"node_id":    "node-1",
		"ts_start":   "2024-01-01T00:00Z",
		"ts_end":     "2024-01-01T00:00:02Z",
		"lat":        "1",
		"lon":        "1",
		"cls":        "bird",
		"confidence": "0.9",
		"feat_json":  `{"rms":0.2}`,
	}
}

func TestCreateEvent_ParsesForm(t *testing.T) {
	s, ing, _, _ := newMockService()
	ing.out = models.EventOut{ID: "e1", Class: "bird"}
	r := newTestRouter(s)

	body, ct := multipartBody(t, validFields(), "a.b.WAV", []byte("RIFF"))
	req := httptest.NewRequest(http.MethodPost, "/events", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	in := ing.lastIn
	if in.NodeID != "node-1" || in.Class != "bird" || in.Lat != 1 || in.Confidence != 0.9 {
		t.Fatalf("unexpected input: %+v", in)
	}
	if !in.TsStart.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ts_start = %v", in.TsStart)
	}
	if in.Filename != "a.b.WAV" || string(in.Data) != "RIFF" || string(in.Features) != `{"rms":0.2}` {
		t.Fatalf("file/feat not passed: %+v", in)
	}
	if in.BaseURL != "http://test" {
		t.Fatalf("base url = %q", in.BaseURL)
	}
}

func TestCreateEvent_TimestampForms(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01T00:00:00Z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T02:00:00+02:00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T00:00:00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T00:00:00.5", time.Date(2024, 1, 1, 0, 0, 0, 500000000, time.UTC)},
		{"2024-01-01 00:00:00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01 00:00:00.25", time.Date(2024, 1, 1, 0, 0, 0, 250000000, time.UTC)},
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			s, ing, _, _ := newMockService()
			r := newTestRouter(s)
			fields := validFields()
			fields["ts_start"] = tc.in
			body, ct := multipartBody(t, fields, "x.wav", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/events", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if !ing.lastIn.TsStart.Equal(tc.want) {
				t.Fatalf("ts_start = %v, want %v", ing.lastIn.TsStart, tc.want)
			}
		})
	}
}

func TestCreateEvent_ClientErrors(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(map[string]string)
		filename string
		code     string
	}{
		{"missing_file", func(map[string]string) {}, "-", models.CodeMissingFile},
		{"bad_time", func(f map[string]string) { f["ts_start"] = "yesterday" }, "x.wav", models.CodeInvalidTime},
		{"missing_ts_end", func(f map[string]string) { delete(f, "ts_end") }, "x.wav", models.CodeMissingField},
		{"bad_lat", func(f map[string]string) { f["lat"] = "north" }, "x.wav", models.CodeInvalidNumber},
		{"missing_confidence", func(f map[string]string) { delete(f, "confidence") }, "x.wav", models.CodeMissingField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, ing, _, _ := newMockService()
			r := newTestRouter(s)
			fields := validFields()
			tc.mutate(fields)
			body, ct := multipartBody(t, fields, tc.filename, []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/events", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			var out map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out["error"] != tc.code {
				t.Fatalf("error=%q, want %q", out["error"], tc.code)
			}
			if ing.calls != 0 {
				t.Fatal("service must not be called on bad input")
			}
		})
	}
}

func TestCreateEvent_NotMultipart(t *testing.T) {
	s, _, _, _ := newMockService()
	r := newTestRouter(s)
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"cls":"bird"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCreateEvent_ServerErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"media", &models.MediaWriteError{Op: "write", Err: errors.New("disk full")}, errMediaWriteFailed},
		{"storage", &models.StorageError{Op: "insert", Err: errors.New("locked")}, errStorageFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, ing, _, _ := newMockService()
			ing.err = tc.err
			r := newTestRouter(s)
			body, ct := multipartBody(t, validFields(), "x.wav", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/events", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), tc.code) {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestListEvents_QueryParsing(t *testing.T) {
	s, _, q, _ := newMockService()
	q.list = []models.EventOut{{ID: "a"}, {ID: "b"}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/events?from=2024-01-01T00:00:00Z&to=2024-01-31&cls=bird&node_id=n1&bbox=0,0,20,20&limit=50&offset=10", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out models.EventsOut
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || len(out.Items) != 2 {
		t.Fatalf("body=%s err=%v", w.Body.String(), err)
	}

	got := q.lastQuery
	wantTo := time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC)
	if !got.To.Equal(wantTo) {
		t.Fatalf("date-only 'to' should be end of day, got %v", got.To)
	}
	if got.Class != "bird" || got.NodeID != "n1" || got.BBox != "0,0,20,20" || got.Limit != 50 || got.Offset != 10 {
		t.Fatalf("unexpected query: %+v", got)
	}
}

func TestListEvents_ZonelessFrom(t *testing.T) {
	s, _, q, _ := newMockService()
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?from=2024-01-01T06:30:00&to=2024-01-02T00:00:00.5", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if want := time.Date(2024, 1, 1, 6, 30, 0, 0, time.UTC); !q.lastQuery.From.Equal(want) {
		t.Fatalf("from = %v, want %v", q.lastQuery.From, want)
	}
	if want := time.Date(2024, 1, 2, 0, 0, 0, 500000000, time.UTC); !q.lastQuery.To.Equal(want) {
		t.Fatalf("to with a time part is not extended to end of day: %v", q.lastQuery.To)
	}
}

func TestListEvents_Defaults(t *testing.T) {
	s, _, q, _ := newMockService()
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if q.lastQuery.Limit != defaultLimit || q.lastQuery.Offset != 0 {
		t.Fatalf("defaults: %+v", q.lastQuery)
	}
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Fatalf("empty list should serialize as [], got %s", w.Body.String())
	}
}

func TestListEvents_BadParams(t *testing.T) {
	for _, u := range []string{"/events?from=notatime", "/events?limit=abc", "/events?offset=x"} {
		s, _, q, _ := newMockService()
		r := newTestRouter(s)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u, nil))
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: status=%d", u, w.Code)
		}
		if q.listCalls != 0 {
			t.Fatalf("%s: service should not be called", u)
		}
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	s, _, q, _ := newMockService()
	q.getErr = models.ErrNotFound
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/garbage", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), errNotFound) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if q.lastID != "garbage" {
		t.Fatalf("id = %q", q.lastID)
	}
}

func TestAddLabel_Binding(t *testing.T) {
	s, _, _, lab := newMockService()
	v := "x"
	lab.out = models.EventOut{ID: "e1", LatestLabel: &v}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events/e1/label", strings.NewReader(`{"label":"x","source":"user"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"latest_label":"x"`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if lab.lastIn.Source != "user" || lab.lastIn.Label != "x" {
		t.Fatalf("input: %+v", lab.lastIn)
	}

	// an absent source reaches the service, which owns the invalid_source code
	lab.addErr = models.NewClientError(models.CodeInvalidSource, "bad source")
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/events/e1/label", strings.NewReader(`{"label":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity || !strings.Contains(w.Body.String(), models.CodeInvalidSource) {
		t.Fatalf("missing source: status=%d body=%s", w.Code, w.Body.String())
	}
	if lab.lastIn.Source != "" || lab.lastIn.Label != "" {
		t.Fatalf("input: %+v", lab.lastIn)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/events/e1/label", strings.NewReader(`{"label":`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("malformed body: status=%d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _, _, _ := newMockService()
	r := newTestRouter(s)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}

	s.Health = mockHealth{err: errors.New("db down")}
	r = newTestRouter(s)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), errDBUnavailable) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}
