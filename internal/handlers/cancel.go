package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"clip-publisher/pkg/tasks"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
)

// CancelScheduledPost removes a publish job before it fires. Once the
// pipeline has started the job can no longer be canceled. The logo staged
// at schedule time is deleted along with the task; nothing else will.
func (h *Handlers) CancelScheduledPost(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	taskID := tasks.PublishTaskID(jobID)

	info, err := h.canceler.GetTaskInfo("default", taskID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		writeError(w, http.StatusNotFound, "no scheduled post with that job id")
		return
	}
	if err != nil {
		log.Printf("Error looking up job %s: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to cancel post")
		return
	}

	if err := h.canceler.DeleteTask("default", taskID); err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "no scheduled post with that job id")
			return
		}
		log.Printf("Error canceling job %s: %v", jobID, err)
		writeError(w, http.StatusConflict, "post can no longer be canceled")
		return
	}

	var p tasks.PublishClipTaskPayload
	if err := json.Unmarshal(info.Payload, &p); err == nil && p.LogoKey != "" {
		h.discardLogo(r, p.LogoKey)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "canceled",
		"job_id": jobID,
	})
}
