// FilePath: server/hub/api/resources/api.resource.timelines.go
package resources

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/tracking"
	nuts "github.com/vaudience/go-nuts"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// TimelineHandlers encapsulates the timeline-related HTTP handlers
type TimelineHandlers struct {
	tracking *tracking.Service
}

// @Summary Get a vehicle's timeline
// @Description Get the archived daily history of a vehicle, optionally restricted to a date window
// @Tags timelines
// @Produce json
// @Param vehicleId path string true "Vehicle ID"
// @Param start query string false "Start date (YYYY-MM-DD, inclusive)"
// @Param end query string false "End date (YYYY-MM-DD, inclusive)"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} tracking.TimelinePage
// @Failure 404 {object} errors.APIError
// @Router /timelines/{vehicleId} [get]
func (h *TimelineHandlers) GetTimeline(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vehicleID := vars["vehicleId"]
	requestID := nuts.NID("req", 12)

	var filters models.TimelineFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	page, err := h.tracking.GetTimelinePage(r.Context(), vehicleID, filters)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// @Summary Get timeline update tracking
// @Description Get archival bookkeeping for a vehicle's timeline: update counts, last archival time and source
// @Tags timelines
// @Produce json
// @Param vehicleId path string true "Vehicle ID"
// @Success 200 {object} models.UpdateTracking
// @Failure 404 {object} errors.APIError
// @Router /timelines/{vehicleId}/tracking [get]
func (h *TimelineHandlers) GetUpdateTracking(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vehicleID := vars["vehicleId"]
	requestID := nuts.NID("req", 12)

	info, err := h.tracking.GetUpdateTracking(r.Context(), vehicleID)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, info)
}
