package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	apperrors "fieldsite-api/internal/errors"
	"fieldsite-api/internal/models"
)

// ExtractorService recovers GPS coordinates from image bytes. When a remote
// extraction service is configured it is consulted over HTTP; otherwise the
// EXIF block is decoded locally.
type ExtractorService struct {
	url        string
	httpClient *http.Client
}

// Wire shape of the remote extraction service's response.
type extractorResponse struct {
	Success   bool     `json:"success"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Message   string   `json:"message"`
}

func NewExtractorService(url string) *ExtractorService {
	return &ExtractorService{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ExtractGPS returns the coordinates embedded in the image, or a NoGPSError
// when the image carries none. Remote transport failures and malformed
// responses surface as ErrExtractor.
func (e *ExtractorService) ExtractGPS(ctx context.Context, fileName string, imageData []byte) (models.Coordinates, error) {
	if e.url == "" {
		return e.extractLocal(imageData)
	}

	result, err := e.callRemote(ctx, fileName, imageData)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", apperrors.ErrExtractor, err)
	}

	if !result.Success {
		return models.Coordinates{}, &apperrors.NoGPSError{Message: result.Message}
	}

	return result.Coordinates, nil
}

// Posts the image as a multipart form and validates the tagged response.
func (e *ExtractorService) callRemote(ctx context.Context, fileName string, imageData []byte) (*models.ExtractionResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var decoded extractorResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("malformed extractor response: %v", err)
	}

	result := &models.ExtractionResult{
		Success: decoded.Success,
		Message: decoded.Message,
	}

	if decoded.Success {
		if decoded.Latitude == nil || decoded.Longitude == nil {
			return nil, fmt.Errorf("extractor reported success without coordinates")
		}
		if !isFinite(*decoded.Latitude) || !isFinite(*decoded.Longitude) {
			return nil, fmt.Errorf("extractor returned non-finite coordinates")
		}
		result.Coordinates = models.Coordinates{
			Latitude:  *decoded.Latitude,
			Longitude: *decoded.Longitude,
		}
	}

	return result, nil
}

// Decodes the EXIF block directly when no remote extractor is configured.
func (e *ExtractorService) extractLocal(imageData []byte) (models.Coordinates, error) {
	x, err := exif.Decode(bytes.NewReader(imageData))
	if err != nil {
		log.Printf("[Extractor] EXIF decode failed: %v", err)
		return models.Coordinates{}, &apperrors.NoGPSError{Message: "image has no readable EXIF data"}
	}

	lat, lon, err := x.LatLong()
	if err != nil {
		return models.Coordinates{}, &apperrors.NoGPSError{Message: "image has no GPS metadata"}
	}

	return models.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
