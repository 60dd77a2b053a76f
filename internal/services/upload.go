package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "fieldsite-api/internal/errors"
	"fieldsite-api/internal/models"
)

// UploadService orchestrates the upload pipeline: validate the request,
// resolve coordinates (client-supplied or extracted), resolve an address,
// write the artifact, persist the metadata record. It owns the temp file
// for the duration of one request and removes it on every exit path.
type UploadService struct {
	metadata  MetadataStore
	artifacts ArtifactStore
	geocoder  AddressResolver
	extractor GPSExtractor
}

func NewUploadService(metadata MetadataStore, artifacts ArtifactStore, geocoder AddressResolver, extractor GPSExtractor) *UploadService {
	return &UploadService{
		metadata:  metadata,
		artifacts: artifacts,
		geocoder:  geocoder,
		extractor: extractor,
	}
}

// Upload runs the full pipeline for one request.
//
// Resubmitting identical content produces a new key and a new record: keys
// are timestamped at millisecond granularity and no deduplication is done.
// Two uploads of the same filename within the same millisecond would collide;
// key derivation is centralized in objectKey so a disambiguator is a
// one-line change if that ever matters.
func (s *UploadService) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResult, error) {
	if req.TempPath != "" {
		defer func() {
			if err := os.Remove(req.TempPath); err != nil && !os.IsNotExist(err) {
				log.Printf("[Upload] Failed to remove temp file %s: %v", req.TempPath, err)
			}
		}()
	}

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(req.TempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	coords, err := s.resolveCoordinates(ctx, req, data)
	if err != nil {
		return nil, err
	}

	// Address is an enrichment; this never fails the pipeline.
	address := s.geocoder.ResolveAddress(ctx, coords)

	now := time.Now()
	key := objectKey(now, req.FileName)

	if err := s.artifacts.Put(ctx, key, data, req.ContentType); err != nil {
		log.Printf("[Upload] Artifact write failed for %s: %v", key, err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageWrite, err)
	}

	record := &models.ImageRecord{
		ProjectName:   req.ProjectName,
		MonitoredDate: req.MonitoredDate,
		FileName:      path.Base(key),
		R2URL:         s.artifacts.PublicURL(key),
		Coordinates:   coords,
		Address:       address,
		UploadedAt:    now,
	}

	id, err := s.metadata.CreateImageRecord(ctx, record)
	if err != nil {
		// The artifact is not rolled back; log the orphaned key so an
		// operator can reconcile by hand.
		log.Printf("[Upload] Metadata write failed, artifact %s is orphaned: %v", key, err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMetadataWrite, err)
	}

	log.Printf("[Upload] Stored %s for project %q at %q", key, req.ProjectName, address)

	return &models.UploadResult{
		ID:          id,
		R2URL:       record.R2URL,
		Coordinates: coords,
		Address:     address,
	}, nil
}

func validateRequest(req *models.UploadRequest) error {
	name := strings.TrimSpace(req.ProjectName)
	if name == "" {
		return fmt.Errorf("%w: project_name is required", apperrors.ErrInvalidInput)
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: project_name exceeds 255 characters", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(req.MonitoredDate) == "" {
		return fmt.Errorf("%w: monitored_date is required", apperrors.ErrInvalidInput)
	}
	if req.TempPath == "" {
		return fmt.Errorf("%w: no image file uploaded", apperrors.ErrInvalidInput)
	}
	return nil
}

// Client-supplied coordinates short-circuit extraction entirely; anything
// that does not parse as a finite number is treated as absent.
func (s *UploadService) resolveCoordinates(ctx context.Context, req *models.UploadRequest, data []byte) (models.Coordinates, error) {
	if coords, ok := parseClientCoordinates(req.Latitude, req.Longitude); ok {
		return coords, nil
	}

	return s.extractor.ExtractGPS(ctx, req.FileName, data)
}

func parseClientCoordinates(latStr, lonStr string) (models.Coordinates, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || !isFinite(lat) {
		return models.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil || !isFinite(lon) {
		return models.Coordinates{}, false
	}
	return models.Coordinates{Latitude: lat, Longitude: lon}, true
}

// objectKey derives the storage key for one upload. The millisecond
// timestamp keeps keys unique across concurrent uploads of identically
// named files.
func objectKey(t time.Time, fileName string) string {
	return fmt.Sprintf("images/%d-%s", t.UnixMilli(), filepath.Base(fileName))
}
