package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"sensor_events/internal/live"
	"sensor_events/internal/logger"
	"sensor_events/internal/media"
	"sensor_events/internal/metrics"
	"sensor_events/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options tunes the HTTP layer. Zero values fall back to defaults.
type Options struct {
	// StorageRoot is the media root; /audio is served from StorageRoot/audio.
	// Empty disables static serving.
	StorageRoot     string
	PublicBaseURL   string
	MaxUploadBytes  int64
	WriteWait       time.Duration
	PongWait        time.Duration
	MaxMessageBytes int64
	Metrics         *metrics.Metrics
}

const (
	defaultMaxUploadBytes  = 64 << 20
	defaultWriteWait       = 10 * time.Second
	defaultPongWait        = 60 * time.Second
	defaultMaxMessageBytes = 1 << 12
	multipartMemory        = 8 << 20
)

func (o Options) withDefaults() Options {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = defaultMaxUploadBytes
	}
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = defaultMaxMessageBytes
	}
	return o
}

// Handler wires HTTP layer to services, the live registry and logging.
type Handler struct {
	services *service.Service
	hub      *live.Registry
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies. log may be nil.
func NewHandler(services *service.Service, hub *live.Registry, log *logger.Logger, opts Options) *Handler {
	return &Handler{services: services, hub: hub, log: log, opts: opts.withDefaults()}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = multipartMemory
	router.Use(gin.Recovery(), h.requestMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.opts.Metrics.Handler()))

	h.registerEventRoutes(router)

	// live feed of newly created events, same port
	router.GET("/live", h.liveConnect)

	if h.opts.StorageRoot != "" {
		router.StaticFS("/"+media.AudioDir, gin.Dir(filepath.Join(h.opts.StorageRoot, media.AudioDir), false))
	}
	return router
}

func (h *Handler) registerEventRoutes(r *gin.Engine) {
	events := r.Group("/events")
	{
		events.POST("", h.createEvent)
		events.GET("", h.listEvents)
		events.GET("/:id", h.getEvent)
		events.POST("/:id/label", h.addLabel)
		events.GET("/:id/labels", h.listLabels)
	}
}

// baseURL is the scheme://host prefix used to build file_url.
func (h *Handler) baseURL(c *gin.Context) string {
	if h.opts.PublicBaseURL != "" {
		return h.opts.PublicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	host := c.Request.Host
	if host == "" {
		host = "localhost"
	}
	return scheme + "://" + host
}

// @Summary      Health check
// @Description  Runs one trivial storage round-trip.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	if err := h.services.Check(c.Request.Context()); err != nil {
		if h.log != nil {
			h.log.Warnw("health_check_failed", "err", err)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errDBUnavailable})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
