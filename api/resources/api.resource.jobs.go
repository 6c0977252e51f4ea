// FilePath: server/hub/api/resources/api.resource.jobs.go
package resources

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/tracking"
	nuts "github.com/vaudience/go-nuts"
)

// JobHandlers exposes manual triggers for the background jobs. Operational
// tooling only; the scheduler keeps running regardless.
type JobHandlers struct {
	tracking *tracking.Service
}

// @Summary Trigger a background job
// @Description Run one of the background jobs (accrual, archive, rollup) immediately
// @Tags jobs
// @Produce json
// @Param name path string true "Job name" Enums(accrual, archive, rollup)
// @Success 202 {object} map[string]string
// @Failure 404 {object} errors.APIError
// @Router /jobs/{name}/run [post]
// @Security BearerAuth
func (h *JobHandlers) RunJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]
	requestID := nuts.NID("req", 12)

	var err error
	switch name {
	case "accrual":
		err = h.tracking.RunAccrual(r.Context())
	case "archive":
		err = h.tracking.TriggerArchive(r.Context())
	case "rollup":
		err = h.tracking.RunRollup(r.Context())
	default:
		respondWithError(w, errors.NewNotFoundError("unknown job: "+name, nil).WithRequestID(requestID))
		return
	}
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{"job": name, "status": "completed"})
}
