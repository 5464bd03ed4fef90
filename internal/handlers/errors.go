package handlers

import (
	"errors"
	"net/http"

	"sensor_events/internal/models"

	"github.com/gin-gonic/gin"
)

// Stable error codes returned in {"error": ...}.
const (
	statusOK = "ok"

	errNotFound         = "not_found"
	errMediaWriteFailed = "media_write_failed"
	errStorageFailed    = "storage_failed"
	errDBUnavailable    = "db_unavailable"
	errPayloadTooLarge  = "payload_too_large"
)

// respondError maps the error taxonomy onto HTTP statuses and logs server
// side failures under logKey.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	var (
		ce  *models.ClientError
		mwe *models.MediaWriteError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ce):
		body := gin.H{"error": ce.Code}
		if ce.Message != "" {
			body["message"] = ce.Message
		}
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errNotFound})
		return
	case errors.As(err, &mbe):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errPayloadTooLarge})
		return
	}

	if h.log != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	_ = c.Error(err)
	if errors.As(err, &mwe) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errMediaWriteFailed})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": errStorageFailed})
}
