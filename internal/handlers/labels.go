package handlers

import (
	"net/http"

	"sensor_events/internal/models"
	"sensor_events/internal/service"

	"github.com/gin-gonic/gin"
)

type labelRequest struct {
	Label  string `json:"label"`
	Source string `json:"source"`
}

// @Summary      Add label
// @Tags         labels
// @Accept       json
// @Produce      json
// @Param        id    path  string        true  "Event id"
// @Param        body  body  labelRequest  true  "Label payload; source is user or system"
// @Success      200  {object}  models.EventOut
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /events/{id}/label [post]
func (h *Handler) addLabel(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "label_bind_failed", models.NewClientError(models.CodeMissingField, "invalid body: %v", err))
		return
	}
	out, err := h.services.AddLabel(c.Request.Context(), c.Param("id"), service.LabelInput{
		Label:   req.Label,
		Source:  req.Source,
		BaseURL: h.baseURL(c),
	})
	if err != nil {
		h.respondError(c, "label_add_failed", err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Label history
// @Tags         labels
// @Produce      json
// @Param        id   path  string  true  "Event id"
// @Success      200  {array}   models.Label
// @Failure      404  {object}  map[string]string
// @Router       /events/{id}/labels [get]
func (h *Handler) listLabels(c *gin.Context) {
	labels, err := h.services.ListLabels(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "labels_list_failed", err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, labels)
}
