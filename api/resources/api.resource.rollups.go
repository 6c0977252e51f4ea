// FilePath: server/hub/api/resources/api.resource.rollups.go
package resources

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/tracking"
	nuts "github.com/vaudience/go-nuts"
)

// RollupHandlers encapsulates the advertiser rollup HTTP handlers
type RollupHandlers struct {
	tracking *tracking.Service
}

// @Summary Get an advertiser's rollup
// @Description Get the stored rollup for an advertiser, or compute one on the fly for an explicit date window
// @Tags rollups
// @Produce json
// @Param advertiserId path string true "Advertiser ID"
// @Param start query string false "Start date (YYYY-MM-DD, inclusive); with end, computes an ad-hoc window"
// @Param end query string false "End date (YYYY-MM-DD, inclusive)"
// @Success 200 {object} models.AdvertiserRollup
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /rollups/{advertiserId} [get]
func (h *RollupHandlers) GetRollup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	advertiserID := vars["advertiserId"]
	requestID := nuts.NID("req", 12)

	var filters models.RollupFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	// An explicit window is computed ad hoc and not persisted; without one
	// the stored rollup from the last scheduled run is served.
	if filters.StartDate != "" || filters.EndDate != "" {
		if !validDate(filters.StartDate) || !validDate(filters.EndDate) {
			respondWithError(w, errors.NewValidationError("start and end must both be YYYY-MM-DD dates", nil).WithRequestID(requestID))
			return
		}
		rollup, err := h.tracking.ComputeRollup(r.Context(), advertiserID, filters.StartDate, filters.EndDate, false)
		if err != nil {
			respondWithServiceError(w, err, requestID)
			return
		}
		respondWithJSON(w, http.StatusOK, rollup)
		return
	}

	rollup, err := h.tracking.GetRollup(r.Context(), advertiserID)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, rollup)
}

func validDate(date string) bool {
	if date == "" {
		return false
	}
	_, err := time.Parse(models.DateLayout, date)
	return err == nil
}
