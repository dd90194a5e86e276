package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clip-publisher/internal/test"
	"clip-publisher/pkg/tasks"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

func cancelRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/schedule-post/{jobId}", h.CancelScheduledPost).Methods(http.MethodDelete)
	return r
}

func TestCancelScheduledPost(t *testing.T) {
	h, store, _ := newTestHandlers(t)
	store.objects["logos/logo_job-1.png"] = []byte("stored")

	payload, err := json.Marshal(tasks.PublishClipTaskPayload{
		JobID:   "job-1",
		LogoKey: "logos/logo_job-1.png",
	})
	assert.NoError(t, err)

	canceler := h.canceler.(*test.MockTaskCanceler)
	canceler.Tasks[tasks.PublishTaskID("job-1")] = &asynq.TaskInfo{
		ID:      tasks.PublishTaskID("job-1"),
		Type:    tasks.TypePublishClip,
		Payload: payload,
	}

	rr := httptest.NewRecorder()
	cancelRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/schedule-post/job-1", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{tasks.PublishTaskID("job-1")}, canceler.DeletedIDs)
	assert.Empty(t, store.objects, "staged logo must be deleted with the canceled job")
}

func TestCancelScheduledPost_UnknownJob(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	rr := httptest.NewRecorder()
	cancelRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/schedule-post/no-such-job", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
