package models

import "time"

type Coordinates struct {
	Latitude  float64 `firestore:"latitude" json:"latitude"`
	Longitude float64 `firestore:"longitude" json:"longitude"`
}

// UnknownLocation is the sentinel address recorded when reverse geocoding
// fails for any reason.
const UnknownLocation = "Unknown Location"

type ImageRecord struct {
	ID            string      `firestore:"-" json:"id"`
	ProjectName   string      `firestore:"projectName" json:"project_name"`
	MonitoredDate string      `firestore:"monitoredDate" json:"monitored_date"`
	FileName      string      `firestore:"fileName" json:"filename"`
	R2URL         string      `firestore:"r2Url" json:"r2_url"`
	Coordinates   Coordinates `firestore:"coordinates" json:"coordinates"`
	Address       string      `firestore:"address" json:"address"`
	UploadedAt    time.Time   `firestore:"uploadedAt" json:"uploaded_at"`
}

// UploadRequest is the request-scoped input to the upload pipeline. The temp
// file at TempPath is owned by the pipeline and removed on every exit path.
type UploadRequest struct {
	ProjectName   string
	MonitoredDate string
	TempPath      string
	FileName      string
	ContentType   string
	Latitude      string // raw client-supplied value, may be empty
	Longitude     string
}

type UploadResult struct {
	ID          string
	R2URL       string
	Coordinates Coordinates
	Address     string
}

// ExtractionResult is the tagged response of the GPS extraction service,
// validated at the boundary before entering pipeline logic.
type ExtractionResult struct {
	Success     bool
	Coordinates Coordinates
	Message     string
}

type PurgeResult struct {
	Deleted  int
	Warnings []string
}
