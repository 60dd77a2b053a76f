package router

import (
	"net/http"

	"fieldsite-api/internal/handlers"
)

// Setup configures and returns the HTTP router with all application routes.
func Setup(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Liveness
	mux.HandleFunc("/", h.HandleRoot)

	// Image endpoints
	mux.HandleFunc("/upload", h.HandleUpload)
	mux.HandleFunc("/images", h.HandleImages)

	return mux
}
