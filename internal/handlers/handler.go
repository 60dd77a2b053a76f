package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"fieldsite-api/internal/services"
)

type Handler struct {
	uploadService  *services.UploadService
	catalogService *services.CatalogService
	maxUploadBytes int64
}

func New(uploadService *services.UploadService, catalogService *services.CatalogService, maxUploadBytes int64) *Handler {
	return &Handler{
		uploadService:  uploadService,
		catalogService: catalogService,
		maxUploadBytes: maxUploadBytes,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}
