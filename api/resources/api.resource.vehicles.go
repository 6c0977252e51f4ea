// FilePath: server/hub/api/resources/api.resource.vehicles.go
package resources

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/tracking"
	nuts "github.com/vaudience/go-nuts"
)

// VehicleHandlers encapsulates the vehicle-related HTTP handlers
type VehicleHandlers struct {
	tracking *tracking.Service
}

// @Summary Register a new vehicle
// @Description Register a new advertising vehicle with its display slots
// @Tags vehicles
// @Accept json
// @Produce json
// @Param vehicle body models.Vehicle true "Vehicle details"
// @Success 201 {object} models.Vehicle
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /vehicles [post]
// @Security BearerAuth
func (h *VehicleHandlers) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var vehicle models.Vehicle
	requestID := nuts.NID("req", 12)

	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	if err := h.tracking.CreateVehicle(r.Context(), &vehicle); err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusCreated, vehicle)
}

// @Summary Get a vehicle by ID
// @Description Get registry details of a specific vehicle
// @Tags vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} models.Vehicle
// @Failure 404 {object} errors.APIError
// @Router /vehicles/{id} [get]
func (h *VehicleHandlers) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	vehicle, err := h.tracking.GetVehicle(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, vehicle)
}

// @Summary List vehicles
// @Description Get a paginated list of registered vehicles
// @Tags vehicles
// @Produce json
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {array} models.Vehicle
// @Router /vehicles [get]
func (h *VehicleHandlers) ListVehicles(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	offset, limit := getPaginationParams(r)

	vehicles, err := h.tracking.ListVehicles(r.Context(), offset, limit)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list vehicles", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, vehicles)
}

// @Summary Get live session snapshot
// @Description Get the current day's live telemetry snapshot for a vehicle
// @Tags vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} models.LiveSnapshot
// @Failure 404 {object} errors.APIError
// @Router /vehicles/{id}/live [get]
func (h *VehicleHandlers) GetLiveSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	snapshot, err := h.tracking.GetLiveSnapshot(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

func getPaginationParams(r *http.Request) (offset, limit int) {
	query := r.URL.Query()
	offset, _ = strconv.Atoi(query.Get("offset"))
	limit, _ = strconv.Atoi(query.Get("limit"))

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return offset, limit
}
