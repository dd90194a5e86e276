package handlers

import (
	"context"
	"log"
	"net/http"

	"clip-publisher/internal/publish"
)

// PageLister fetches the Facebook pages the configured token can manage.
// Implemented by publish.GraphClient.
type PageLister interface {
	ListManagedPages(ctx context.Context) ([]publish.Page, error)
}

// GetFacebookPages lists the pages available to the configured access
// token, live from the Graph API. Operators use it to find target ids.
func (h *Handlers) GetFacebookPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.ListManagedPages(r.Context())
	if err != nil {
		log.Printf("Error listing facebook pages: %v", err)
		writeError(w, http.StatusBadGateway, "failed to list facebook pages")
		return
	}
	if pages == nil {
		pages = []publish.Page{}
	}
	writeJSON(w, http.StatusOK, pages)
}
