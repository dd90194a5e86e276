package handlers

import (
	"net/http"

	"clip-publisher/internal/db"
	"clip-publisher/internal/models"
)

// GetPendingPosts lists ledger entries still awaiting moderation.
func (h *Handlers) GetPendingPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := db.GetAllPendingPosts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load pending posts")
		return
	}
	if posts == nil {
		posts = []models.PendingPost{}
	}
	writeJSON(w, http.StatusOK, posts)
}
