// FilePath: server/hub/api/resources/api.resource.campaigns.go
package resources

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/tracking"
	nuts "github.com/vaudience/go-nuts"
)

// CampaignHandlers encapsulates the campaign seeding endpoints. The booking
// flow lives in an external system; these serve operations and test
// environments.
type CampaignHandlers struct {
	tracking *tracking.Service
}

// @Summary Register a campaign
// @Description Register an advertiser campaign booking for rollup tracking
// @Tags campaigns
// @Accept json
// @Produce json
// @Param campaign body models.Campaign true "Campaign details"
// @Success 201 {object} models.Campaign
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /campaigns [post]
// @Security BearerAuth
func (h *CampaignHandlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var campaign models.Campaign
	requestID := nuts.NID("req", 12)

	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	if err := h.tracking.CreateCampaign(r.Context(), &campaign); err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusCreated, campaign)
}

// @Summary Place a campaign on a vehicle
// @Description Bind an existing campaign to a registered vehicle
// @Tags campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param placement body models.Placement true "Placement details"
// @Success 201 {object} models.Placement
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /campaigns/{id}/placements [post]
// @Security BearerAuth
func (h *CampaignHandlers) CreatePlacement(w http.ResponseWriter, r *http.Request) {
	var placement models.Placement
	requestID := nuts.NID("req", 12)

	if err := json.NewDecoder(r.Body).Decode(&placement); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	placement.CampaignID = mux.Vars(r)["id"]

	if err := h.tracking.CreatePlacement(r.Context(), &placement); err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusCreated, placement)
}
