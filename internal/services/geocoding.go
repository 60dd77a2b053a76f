package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"fieldsite-api/internal/models"
)

// Performs reverse geocoding against an OpenCage-style API with caching and
// rate limiting. Address resolution is an enrichment: ResolveAddress never
// fails, it falls back to models.UnknownLocation instead.
type GeocodingService struct {
	endpoint    string
	apiKey      string
	cache       map[string]string
	cacheMutex  sync.RWMutex
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// Models the subset of the geocoder's response that we care about.
type geocodeResponse struct {
	Results []struct {
		Formatted string `json:"formatted"`
	} `json:"results"`
}

// Returns a fully configured geocoder.
// It includes:
//   - in-memory cache
//   - shared HTTP client
//   - rate limiting (1 request/sec)
func NewGeocodingService(endpoint, apiKey string) *GeocodingService {
	return &GeocodingService{
		endpoint:   endpoint,
		apiKey:     apiKey,
		cache:      make(map[string]string),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		rateLimiter: rate.NewLimiter(
			rate.Limit(1), // 1 request/sec
			1,             // burst size
		),
	}
}

// ResolveAddress performs a coordinate→address lookup. Any failure (transport
// error, non-2xx status, malformed body, empty results) is logged and absorbed,
// returning models.UnknownLocation.
func (g *GeocodingService) ResolveAddress(ctx context.Context, coords models.Coordinates) string {
	key := fmt.Sprintf("%.4f,%.4f", coords.Latitude, coords.Longitude)

	// First check: read lock
	g.cacheMutex.RLock()
	if cached := g.cache[key]; cached != "" {
		g.cacheMutex.RUnlock()
		return cached
	}
	g.cacheMutex.RUnlock()

	// Rate limit before making API call
	if err := g.rateLimiter.Wait(ctx); err != nil {
		log.Printf("[Geocode] Rate limiter interrupted: %v", err)
		return models.UnknownLocation
	}

	address, err := g.fetchAddress(ctx, coords)
	if err != nil {
		log.Printf("[Geocode] Lookup failed for %s: %v", key, err)
		return models.UnknownLocation
	}

	// Double-check cache before writing (another goroutine might have set it)
	g.cacheMutex.Lock()
	if cached := g.cache[key]; cached != "" {
		g.cacheMutex.Unlock()
		return cached
	}
	g.cache[key] = address
	g.cacheMutex.Unlock()

	return address
}

// Performs the actual HTTP request and parses the response.
func (g *GeocodingService) fetchAddress(ctx context.Context, coords models.Coordinates) (string, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("%f+%f", coords.Latitude, coords.Longitude))
	query.Set("key", g.apiKey)
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("Accept-Language", "en")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var data geocodeResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", err
	}

	if len(data.Results) == 0 || data.Results[0].Formatted == "" {
		return "", fmt.Errorf("geocoder returned no results")
	}

	return data.Results[0].Formatted, nil
}
