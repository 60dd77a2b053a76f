package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	apperrors "fieldsite-api/internal/errors"
	"fieldsite-api/internal/models"
)

type uploadResponse struct {
	Status    string  `json:"status"`
	ID        string  `json:"id"`
	R2URL     string  `json:"r2_url"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// HandleUpload accepts a multipart photo upload and runs the upload pipeline.
// Image parts go under the "images" field; form fields are project_name,
// monitored_date and optional latitude/longitude. Only the first file is
// processed.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := &models.UploadRequest{
		ProjectName:   r.FormValue("project_name"),
		MonitoredDate: r.FormValue("monitored_date"),
		Latitude:      r.FormValue("latitude"),
		Longitude:     r.FormValue("longitude"),
	}

	// The first uploaded file is authoritative; any others are ignored.
	if files := r.MultipartForm.File["images"]; len(files) > 0 {
		tempPath, err := saveToTemp(files[0])
		if err != nil {
			log.Printf("[Upload] Failed to stage upload: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		req.TempPath = tempPath
		req.FileName = filepath.Base(files[0].Filename)
		req.ContentType = files[0].Header.Get("Content-Type")
	}

	result, err := h.uploadService.Upload(r.Context(), req)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	log.Printf("[Upload] Completed %s for project %q in %v", result.ID, req.ProjectName, time.Since(start))

	writeJSON(w, http.StatusOK, uploadResponse{
		Status:    "ok",
		ID:        result.ID,
		R2URL:     result.R2URL,
		Latitude:  result.Coordinates.Latitude,
		Longitude: result.Coordinates.Longitude,
		Address:   result.Address,
	})
}

// Validation and GPS-absence are recoverable by the caller; everything else
// is an opaque server error with the detail logged only.
func (h *Handler) writeUploadError(w http.ResponseWriter, err error) {
	var noGPS *apperrors.NoGPSError

	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &noGPS):
		writeError(w, http.StatusBadRequest, noGPS.Message)
	case errors.Is(err, apperrors.ErrNoGPS):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[Upload] Pipeline failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// Copies one multipart file to a request-scoped temp file. The pipeline owns
// the file from here and removes it on every exit path.
func saveToTemp(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "fieldsite-upload-*")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}

	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return dst.Name(), nil
}
