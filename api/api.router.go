package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/admova/server/hub/api/middleware"
	"github.com/itsatony/admova/server/hub/api/resources"
	"github.com/itsatony/admova/server/hub/internal/tracking"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.KeycloakMiddleware
	resources *resources.Resources
}

func NewRouter(svc *tracking.Service, keycloakConfig middleware.KeycloakConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewKeycloakMiddleware(keycloakConfig),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	return r
}

func (r *Router) Resources() *resources.Resources {
	return r.resources
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if r.resources.HealthCheck != nil {
			r.resources.HealthCheck(w, req)
		}
	}).Methods(http.MethodGet)
	api.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		if r.resources.Metrics != nil {
			r.resources.Metrics(w, req)
		}
	}).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Device telemetry ingestion
	ingest := protected.PathPrefix("/ingest").Subrouter()
	ingest.HandleFunc("/events", r.resources.Ingest.IngestEvents).Methods(http.MethodPost)

	// Vehicles
	vehicles := protected.PathPrefix("/vehicles").Subrouter()
	vehicles.HandleFunc("", r.resources.Vehicles.ListVehicles).Methods(http.MethodGet)
	vehicles.HandleFunc("", r.resources.Vehicles.CreateVehicle).Methods(http.MethodPost)
	vehicles.HandleFunc("/{id}", r.resources.Vehicles.GetVehicle).Methods(http.MethodGet)
	vehicles.HandleFunc("/{id}/live", r.resources.Vehicles.GetLiveSnapshot).Methods(http.MethodGet)

	// Campaign seeding, admin only
	campaigns := protected.PathPrefix("/campaigns").Subrouter()
	campaigns.Use(r.auth.RequireRoles([]string{"admin"}))
	campaigns.HandleFunc("", r.resources.Campaigns.CreateCampaign).Methods(http.MethodPost)
	campaigns.HandleFunc("/{id}/placements", r.resources.Campaigns.CreatePlacement).Methods(http.MethodPost)

	// Timelines
	timelines := protected.PathPrefix("/timelines").Subrouter()
	timelines.HandleFunc("/{vehicleId}", r.resources.Timelines.GetTimeline).Methods(http.MethodGet)
	timelines.HandleFunc("/{vehicleId}/tracking", r.resources.Timelines.GetUpdateTracking).Methods(http.MethodGet)

	// Rollups
	rollups := protected.PathPrefix("/rollups").Subrouter()
	rollups.HandleFunc("/{advertiserId}", r.resources.Rollups.GetRollup).Methods(http.MethodGet)

	// Background job triggers, admin only
	jobs := protected.PathPrefix("/jobs").Subrouter()
	jobs.Use(r.auth.RequireRoles([]string{"admin"}))
	jobs.HandleFunc("/{name}/run", r.resources.Jobs.RunJob).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
