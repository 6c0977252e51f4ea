// FilePath: server/hub/api/resources/resources.go
package resources

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/tracking"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Vehicles    *VehicleHandlers
	Campaigns   *CampaignHandlers
	Timelines   *TimelineHandlers
	Rollups     *RollupHandlers
	Ingest      *IngestHandlers
	Jobs        *JobHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *tracking.Service) *Resources {
	return &Resources{
		Vehicles:  &VehicleHandlers{tracking: svc},
		Campaigns: &CampaignHandlers{tracking: svc},
		Timelines: &TimelineHandlers{tracking: svc},
		Rollups:   &RollupHandlers{tracking: svc},
		Ingest:    &IngestHandlers{tracking: svc},
		Jobs:      &JobHandlers{tracking: svc},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}

// Helper functions

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// respondWithServiceError maps APIErrors through unchanged and wraps
// everything else as internal.
func respondWithServiceError(w http.ResponseWriter, err error, requestID string) {
	if apiErr, ok := err.(*errors.APIError); ok {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	respondWithError(w, errors.NewInternalError("internal error", err).WithRequestID(requestID))
}
