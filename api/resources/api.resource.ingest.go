// FilePath: server/hub/api/resources/api.resource.ingest.go
package resources

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/tracking"
	nuts "github.com/vaudience/go-nuts"
)

// ingestBatchCap bounds one ingestion request; devices batch at most a few
// dozen events per flush, anything larger is a misbehaving client.
const ingestBatchCap = 1000

// IngestHandlers encapsulates the device telemetry ingestion handlers
type IngestHandlers struct {
	tracking *tracking.Service
}

type ingestRequest struct {
	Events []models.DeviceEvent `json:"events"`
}

// @Summary Ingest device events
// @Description Accept a batch of telemetry events (location, playback, qrscan, online) from vehicle devices
// @Tags ingest
// @Accept json
// @Produce json
// @Param batch body ingestRequest true "Event batch"
// @Success 200 {object} tracking.IngestResult
// @Failure 400 {object} errors.APIError
// @Router /ingest/events [post]
// @Security BearerAuth
func (h *IngestHandlers) IngestEvents(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if len(req.Events) == 0 {
		respondWithError(w, errors.NewValidationError("empty event batch", nil).WithRequestID(requestID))
		return
	}
	if len(req.Events) > ingestBatchCap {
		respondWithError(w, errors.NewValidationError("event batch too large", nil).WithRequestID(requestID))
		return
	}

	result := h.tracking.Ingest(r.Context(), req.Events)
	respondWithJSON(w, http.StatusOK, result)
}
