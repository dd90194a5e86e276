package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"clip-publisher/internal/store"
	"clip-publisher/pkg/tasks"
)

type Handlers struct {
	asynqClient tasks.TaskEnqueuer
	canceler    tasks.TaskCanceler
	store       store.Client
	pages       PageLister
	scratchDir  string
}

func New(asynqClient tasks.TaskEnqueuer, canceler tasks.TaskCanceler, blobStore store.Client, pages PageLister) *Handlers {
	return &Handlers{
		asynqClient: asynqClient,
		canceler:    canceler,
		store:       blobStore,
		pages:       pages,
		scratchDir:  os.TempDir(),
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
