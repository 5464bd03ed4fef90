package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensor_events/internal/config"
	"sensor_events/internal/handlers"
	"sensor_events/internal/live"
	"sensor_events/internal/logger"
	"sensor_events/internal/media"
	"sensor_events/internal/metrics"
	"sensor_events/internal/repository"
	"sensor_events/internal/repository/db"
	"sensor_events/internal/server"
	"sensor_events/internal/service"
)

const (
	configDir       = "configs"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// load configs/config.yml + EVENTS_* overrides
	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Get(logger.InfoLevel, logger.FormatConsole).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	m := metrics.New()
	hub := live.NewRegistry(log.Component("live"), m)
	store := media.NewStore(cfg.Storage.Root).WithDefaultExt(cfg.Storage.DefaultExt)
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, store, hub, m, log)
	apiHandler := handlers.NewHandler(services, hub, log.Component("http"), handlers.Options{
		StorageRoot:     cfg.Storage.Root,
		PublicBaseURL:   cfg.HTTP.PublicBaseURL,
		MaxUploadBytes:  cfg.HTTP.MaxUploadBytes,
		WriteWait:       cfg.Live.WriteWait,
		PongWait:        cfg.Live.PongWait,
		MaxMessageBytes: cfg.Live.MaxMessageBytes,
		Metrics:         m,
	})

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log)
}

// openDB creates the storage root and initializes the SQLite database.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	if err := os.MkdirAll(cfg.Storage.Root, 0o755); err != nil {
		return nil, err
	}
	log.Infow("opening database", "path", cfg.DB.Path, "storage_root", cfg.Storage.Root)
	return db.InitDB(cfg.DB.Path)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
