package handlers

import (
	"log"
	"net/http"
	"strings"

	"clip-publisher/internal/db"
	"clip-publisher/internal/models"

	"github.com/gorilla/mux"
)

// GetTargets returns the configured publishing targets grouped by platform.
func (h *Handlers) GetTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := db.GetAllTargets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load targets")
		return
	}

	grouped := make(map[string][]models.PublishTarget)
	for _, t := range targets {
		grouped[t.Platform] = append(grouped[t.Platform], t)
	}
	writeJSON(w, http.StatusOK, grouped)
}

func (h *Handlers) PostTarget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	platform, err := models.ParsePlatform(r.FormValue("platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	targetID := r.FormValue("target_id")
	if targetID == "" {
		writeError(w, http.StatusBadRequest, "missing target_id")
		return
	}

	target, err := db.AddTarget(string(platform), targetID, r.FormValue("title"))
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			writeError(w, http.StatusConflict, "target already configured")
			return
		}
		log.Printf("Error adding target: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to add target")
		return
	}
	writeJSON(w, http.StatusCreated, target)
}

// DeleteTarget removes a configured target. Removal is idempotent: deleting
// an unknown id still answers 200.
func (h *Handlers) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	platform, err := models.ParsePlatform(vars["platform"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := db.DeleteTarget(string(platform), vars["id"]); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete target")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
