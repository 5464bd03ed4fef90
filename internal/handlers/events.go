package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"sensor_events/internal/models"
	"sensor_events/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Submit event
// @Description  Stores the media file and the event row, then pushes the event to /live subscribers.
// @Tags         events
// @Accept       multipart/form-data
// @Produce      json
// @Param        node_id     formData  string  true   "Sensor node id"
// @Param        ts_start    formData  string  true   "Start (RFC3339)"
// @Param        ts_end      formData  string  true   "End (RFC3339)"
// @Param        lat         formData  number  true   "Latitude (WGS84)"
// @Param        lon         formData  number  true   "Longitude (WGS84)"
// @Param        cls         formData  string  true   "Class"
// @Param        confidence  formData  number  true   "Confidence"
// @Param        feat_json   formData  string  false  "Feature payload (JSON)"
// @Param        file        formData  file    true   "Media file"
// @Success      200  {object}  models.EventOut
// @Failure      413  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /events [post]
func (h *Handler) createEvent(c *gin.Context) {
	if c.Request.ContentLength > h.opts.MaxUploadBytes {
		h.respondError(c, "event_form_failed", &http.MaxBytesError{Limit: h.opts.MaxUploadBytes})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	in, err := h.readIngestForm(c)
	if err != nil {
		h.respondError(c, "event_form_failed", err)
		return
	}
	out, err := h.services.Ingest(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, "event_ingest_failed", err, "node_id", in.NodeID, "cls", in.Class)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) readIngestForm(c *gin.Context) (service.IngestInput, error) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return service.IngestInput{}, mbe
		}
		return service.IngestInput{}, models.NewClientError(models.CodeMissingFile,
			"expected multipart/form-data with a file: %v", err)
	}

	in := service.IngestInput{
		NodeID:  c.PostForm("node_id"),
		Class:   c.PostForm("cls"),
		BaseURL: h.baseURL(c),
	}
	var err error

	for _, f := range []struct {
		name string
		dst  *time.Time
	}{{"ts_start", &in.TsStart}, {"ts_end", &in.TsEnd}} {
		v := c.PostForm(f.name)
		if v == "" {
			return in, models.NewClientError(models.CodeMissingField, "%s is required", f.name)
		}
		if *f.dst, err = parseTime(f.name, v); err != nil {
			return in, err
		}
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"lat", &in.Lat}, {"lon", &in.Lon}, {"confidence", &in.Confidence}} {
		if *f.dst, err = parseFloat(f.name, c.PostForm(f.name)); err != nil {
			return in, err
		}
	}
	if feat := strings.TrimSpace(c.PostForm("feat_json")); feat != "" {
		in.Features = json.RawMessage(feat)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return in, models.NewClientError(models.CodeMissingFile, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return in, models.NewClientError(models.CodeMissingFile, "cannot open uploaded file")
	}
	defer f.Close()
	if in.Data, err = io.ReadAll(f); err != nil {
		return in, models.NewClientError(models.CodeMissingFile, "cannot read uploaded file")
	}
	in.Filename = fh.Filename
	return in, nil
}

// @Summary      List events
// @Description  Filters are optional and combined with AND. Newest ts_start first. A date-only 'to' is end-of-day inclusive.
// @Tags         events
// @Produce      json
// @Param        from     query  string  false  "ts_start >= from"
// @Param        to       query  string  false  "ts_end <= to"
// @Param        cls      query  string  false  "Exact class"
// @Param        node_id  query  string  false  "Exact node id"
// @Param        bbox     query  string  false  "min_lon,min_lat,max_lon,max_lat"
// @Param        limit    query  int     false  "1..1000, default 100"
// @Param        offset   query  int     false  ">= 0, default 0"
// @Success      200  {object}  models.EventsOut
// @Failure      422  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /events [get]
func (h *Handler) listEvents(c *gin.Context) {
	q, err := h.readListQuery(c)
	if err != nil {
		h.respondError(c, "events_query_failed", err)
		return
	}
	items, err := h.services.ListEvents(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, "events_list_failed", err, "cls", q.Class, "node_id", q.NodeID, "bbox", q.BBox)
		return
	}
	if items == nil {
		items = []models.EventOut{}
	}
	c.JSON(http.StatusOK, models.EventsOut{Items: items})
}

func (h *Handler) readListQuery(c *gin.Context) (service.ListQuery, error) {
	q := service.ListQuery{
		Class:   c.Query("cls"),
		NodeID:  c.Query("node_id"),
		BBox:    c.Query("bbox"),
		BaseURL: h.baseURL(c),
	}
	var err error
	if s := c.Query("from"); s != "" {
		if q.From, err = parseTime("from", s); err != nil {
			return q, err
		}
	}
	if s := c.Query("to"); s != "" {
		if q.To, err = parseUpperBound("to", s); err != nil {
			return q, err
		}
	}
	if q.Limit, err = parseIntParam(models.CodeInvalidLimit, "limit", c.Query("limit"), defaultLimit); err != nil {
		return q, err
	}
	if q.Offset, err = parseIntParam(models.CodeInvalidOffset, "offset", c.Query("offset"), 0); err != nil {
		return q, err
	}
	return q, nil
}

// @Summary      Get event
// @Tags         events
// @Produce      json
// @Param        id   path  string  true  "Event id"
// @Success      200  {object}  models.EventOut
// @Failure      404  {object}  map[string]string
// @Router       /events/{id} [get]
func (h *Handler) getEvent(c *gin.Context) {
	out, err := h.services.GetEvent(c.Request.Context(), c.Param("id"), h.baseURL(c))
	if err != nil {
		h.respondError(c, "event_get_failed", err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, out)
}
