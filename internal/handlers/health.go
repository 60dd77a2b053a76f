package handlers

import (
	"fmt"
	"net/http"
)

// HandleRoot responds to liveness checks with a plain-text string.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "fieldsite-api is running")
}
