// FilePath: server/hub/internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	ghandlers "github.com/gorilla/handlers"
	"github.com/itsatony/admova/server/hub/api"
	"github.com/itsatony/admova/server/hub/api/middleware"
	"github.com/itsatony/admova/server/hub/internal/config"
	"github.com/itsatony/admova/server/hub/internal/database"
	"github.com/itsatony/admova/server/hub/internal/monitoring"
	"github.com/itsatony/admova/server/hub/internal/repository"
	"github.com/itsatony/admova/server/hub/internal/repository/postgres"
	"github.com/itsatony/admova/server/hub/internal/repository/rediscache"
	"github.com/itsatony/admova/server/hub/internal/scheduler"
	"github.com/itsatony/admova/server/hub/internal/timezone"
	"github.com/itsatony/admova/server/hub/internal/tracking"
	nuts "github.com/vaudience/go-nuts"
)

const databasePingTimeout = 5 * time.Second

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	tracking   *tracking.Service
	scheduler  *scheduler.Scheduler
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start wires up all services and begins listening for requests
func (s *Server) Start() error {
	s.tracking = initializeTrackingService(s.config)
	s.monitoring = monitoring.NewService(monitoring.Config{
		PrometheusEndpoint: s.config.Monitoring.PrometheusEndpoint,
		LokiEndpoint:       s.config.Monitoring.LokiEndpoint,
	})

	s.setupEventHandlers()
	s.setupJobs()

	router := api.NewRouter(s.tracking, middleware.KeycloakConfig{
		URL:          s.config.Keycloak.URL,
		Realm:        s.config.Keycloak.Realm,
		ClientID:     s.config.Keycloak.ClientID,
		ClientSecret: s.config.Keycloak.ClientSecret,
	})
	router.Resources().SetHealthCheck(s.handleHealth())
	router.Resources().SetMetrics(s.handleMetrics())

	cors := ghandlers.CORS(
		ghandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		ghandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	s.srv.Handler = ghandlers.RecoveryHandler()(
		cors(ghandlers.CombinedLoggingHandler(os.Stdout, router)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.scheduler.Start(ctx)

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the
// server. The scheduler drains first so no job is mid-flight when the
// database connections close.
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	s.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// setupJobs registers the three background jobs on the scheduler.
func (s *Server) setupJobs() {
	s.scheduler = scheduler.New()
	s.scheduler.Register("accrual", s.config.Tracking.AccrualInterval, false, s.tracking.RunAccrual)
	s.scheduler.Register("archive", s.config.Tracking.ArchiveInterval, false, s.tracking.RunArchive)
	s.scheduler.Register("rollup", s.config.Tracking.RollupInterval, true, s.tracking.RunRollup)
}

// setupEventHandlers forwards tracking service events to monitoring.
func (s *Server) setupEventHandlers() {
	s.tracking.Events.On(tracking.EventSessionArchived, "monitoring", func(args ...interface{}) {
		if id, ok := firstString(args); ok {
			s.monitoring.RecordEvent("session_archived", map[string]string{
				"vehicle_id": id,
			})
		}
	})

	s.tracking.Events.On(tracking.EventSessionRollover, "monitoring", func(args ...interface{}) {
		if id, ok := firstString(args); ok {
			nuts.L.Infof("[Server] Session rolled over for vehicle %s", id)
			s.monitoring.RecordEvent("session_rollover", map[string]string{
				"vehicle_id": id,
			})
		}
	})

	s.tracking.Events.On(tracking.EventRollupUpdated, "monitoring", func(args ...interface{}) {
		if id, ok := firstString(args); ok {
			s.monitoring.RecordEvent("rollup_updated", map[string]string{
				"advertiser_id": id,
			})
		}
	})
}

func firstString(args []interface{}) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

// handleMetrics serves the in-memory event counters.
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(s.monitoring.EventCounts())
	}
}

// initializeTrackingService creates and configures the tracking service
func initializeTrackingService(cfg *config.Config) *tracking.Service {
	telemetryDB := initDB("TelemetryDB", cfg.Database.TelemetryDB)
	appDB := initDB("AppDB", cfg.Database.AppDB)

	sessions, err := postgres.NewSessionRepository(telemetryDB)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize session repository: %v", err)
	}
	timelines, err := postgres.NewTimelineRepository(telemetryDB)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize timeline repository: %v", err)
	}
	rollups, err := postgres.NewRollupRepository(appDB)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize rollup repository: %v", err)
	}
	placements, err := postgres.NewPlacementRepository(appDB)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize placement registry: %v", err)
	}
	vehicles, err := postgres.NewVehicleRepository(appDB)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize vehicle repository: %v", err)
	}

	var cache repository.SnapshotCache
	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		nuts.L.Warnf("[Server] Redis unavailable, live snapshots served from the database: %v", err)
	} else {
		cache = rediscache.NewSnapshotCache(redisClient)
	}

	resolver, err := timezone.NewResolver(cfg.Tracking.DefaultTimezone)
	if err != nil {
		nuts.L.Fatalf("[Server] Invalid default timezone %q: %v", cfg.Tracking.DefaultTimezone, err)
	}

	svc := tracking.New(sessions, timelines, rollups, placements, vehicles, cache, resolver, cfg.Tracking)
	if err := svc.Validate(); err != nil {
		nuts.L.Fatalf("[Server] Tracking service misconfigured: %v", err)
	}
	return svc
}

func initDB(name string, cfg config.PostgresConfig) database.DB {
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to %s: %v", name, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), databasePingTimeout)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping %s: %v", name, err)
	}
	return db
}
