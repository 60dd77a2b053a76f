package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"
)

type purgeResponse struct {
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}

// HandleImages serves the catalog: GET returns the latest record per
// project, DELETE purges every record along with its stored artifact.
func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleImagesList(w, r)
	case http.MethodDelete:
		h.handleImagesPurge(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleImagesList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	records, err := h.catalogService.LatestPerProject(r.Context())
	if err != nil {
		log.Printf("[Images] Failed to list images: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve images")
		return
	}

	log.Printf("[Images] Served %d projects in %v", len(records), time.Since(start))

	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleImagesPurge(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.catalogService.PurgeAll(r.Context())
	if err != nil {
		log.Printf("[Images] Purge failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete images")
		return
	}

	log.Printf("[Images] Purged %d records (%d warnings) in %v", result.Deleted, len(result.Warnings), time.Since(start))

	writeJSON(w, http.StatusOK, purgeResponse{
		Status:   "ok",
		Message:  fmt.Sprintf("deleted %d images", result.Deleted),
		Warnings: result.Warnings,
	})
}
