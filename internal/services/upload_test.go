package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	apperrors "fieldsite-api/internal/errors"
	"fieldsite-api/internal/models"
)

type fakeMetadataStore struct {
	mu        sync.Mutex
	records   map[string]*models.ImageRecord
	nextID    int
	createErr error
	listErr   error
	deleteErr map[string]error
}

func newFakeMetadataStore() *fakeMetadataStore {
	return &fakeMetadataStore{records: make(map[string]*models.ImageRecord)}
}

func (f *fakeMetadataStore) CreateImageRecord(ctx context.Context, record *models.ImageRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	stored := *record
	stored.ID = id
	f.records[id] = &stored
	return id, nil
}

func (f *fakeMetadataStore) ListImageRecords(ctx context.Context) ([]*models.ImageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.ImageRecord
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeMetadataStore) DeleteImageRecord(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	delete(f.records, id)
	return nil
}

func (f *fakeMetadataStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeArtifactStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	deleteErr map[string]error
	deleted   []string
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{objects: make(map[string][]byte)}
}

func (f *fakeArtifactStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeArtifactStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[key]; err != nil {
		return err
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeArtifactStore) PublicURL(key string) string {
	return "https://pub.example.com/" + key
}

type fakeGeocoder struct {
	address string
}

func (f *fakeGeocoder) ResolveAddress(ctx context.Context, coords models.Coordinates) string {
	if f.address == "" {
		return models.UnknownLocation
	}
	return f.address
}

type fakeExtractor struct {
	coords models.Coordinates
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractGPS(ctx context.Context, fileName string, data []byte) (models.Coordinates, error) {
	f.calls++
	if f.err != nil {
		return models.Coordinates{}, f.err
	}
	return f.coords, nil
}

func writeTempUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o600); err != nil {
		t.Fatalf("failed to write temp upload: %v", err)
	}
	return path
}

func validUploadRequest(t *testing.T) *models.UploadRequest {
	return &models.UploadRequest{
		ProjectName:   "Site A",
		MonitoredDate: "2024-01-01",
		TempPath:      writeTempUpload(t),
		FileName:      "photo.jpg",
		ContentType:   "image/jpeg",
		Latitude:      "12.34",
		Longitude:     "56.78",
	}
}

func TestUploadClientCoordinatesSkipExtraction(t *testing.T) {
	meta := newFakeMetadataStore()
	store := newFakeArtifactStore()
	extractor := &fakeExtractor{}
	svc := NewUploadService(meta, store, &fakeGeocoder{address: "1 Main St, Springfield"}, extractor)

	req := validUploadRequest(t)
	result, err := svc.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if extractor.calls != 0 {
		t.Errorf("extractor called %d times, want 0", extractor.calls)
	}
	if result.Coordinates.Latitude != 12.34 || result.Coordinates.Longitude != 56.78 {
		t.Errorf("unexpected coordinates: %+v", result.Coordinates)
	}
	if result.Address != "1 Main St, Springfield" {
		t.Errorf("unexpected address: %q", result.Address)
	}
	if meta.count() != 1 {
		t.Errorf("record count = %d, want 1", meta.count())
	}

	urlPattern := regexp.MustCompile(`^https://pub\.example\.com/images/\d+-photo\.jpg$`)
	if !urlPattern.MatchString(result.R2URL) {
		t.Errorf("artifact URL %q does not match %s", result.R2URL, urlPattern)
	}

	if _, err := os.Stat(req.TempPath); !os.IsNotExist(err) {
		t.Errorf("temp file %s still exists after upload", req.TempPath)
	}
}

func TestUploadInvalidClientCoordinatesFallBackToExtraction(t *testing.T) {
	tests := []struct {
		name string
		lat  string
		lon  string
	}{
		{"both absent", "", ""},
		{"latitude absent", "", "56.78"},
		{"non-numeric", "abc", "56.78"},
		{"NaN", "NaN", "56.78"},
		{"infinite", "+Inf", "56.78"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &fakeExtractor{coords: models.Coordinates{Latitude: 1.5, Longitude: 2.5}}
			svc := NewUploadService(newFakeMetadataStore(), newFakeArtifactStore(), &fakeGeocoder{}, extractor)

			req := validUploadRequest(t)
			req.Latitude = tt.lat
			req.Longitude = tt.lon

			result, err := svc.Upload(context.Background(), req)
			if err != nil {
				t.Fatalf("Upload returned error: %v", err)
			}
			if extractor.calls != 1 {
				t.Errorf("extractor called %d times, want 1", extractor.calls)
			}
			if result.Coordinates.Latitude != 1.5 || result.Coordinates.Longitude != 2.5 {
				t.Errorf("unexpected coordinates: %+v", result.Coordinates)
			}
		})
	}
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.UploadRequest)
	}{
		{"empty project name", func(r *models.UploadRequest) { r.ProjectName = "" }},
		{"project name too long", func(r *models.UploadRequest) {
			long := make([]byte, 256)
			for i := range long {
				long[i] = 'a'
			}
			r.ProjectName = string(long)
		}},
		{"missing date", func(r *models.UploadRequest) { r.MonitoredDate = "" }},
		{"no file", func(r *models.UploadRequest) { r.TempPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := newFakeMetadataStore()
			svc := NewUploadService(meta, newFakeArtifactStore(), &fakeGeocoder{}, &fakeExtractor{})

			req := validUploadRequest(t)
			tt.mutate(req)

			_, err := svc.Upload(context.Background(), req)
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
			if meta.count() != 0 {
				t.Errorf("record created on invalid input")
			}
		})
	}
}

func TestUploadMissingGPSCleansTempFile(t *testing.T) {
	meta := newFakeMetadataStore()
	extractor := &fakeExtractor{err: &apperrors.NoGPSError{Message: "no GPS tag"}}
	svc := NewUploadService(meta, newFakeArtifactStore(), &fakeGeocoder{}, extractor)

	req := validUploadRequest(t)
	req.Latitude = ""
	req.Longitude = ""

	_, err := svc.Upload(context.Background(), req)
	if !errors.Is(err, apperrors.ErrNoGPS) {
		t.Fatalf("error = %v, want ErrNoGPS", err)
	}

	var noGPS *apperrors.NoGPSError
	if !errors.As(err, &noGPS) || noGPS.Message != "no GPS tag" {
		t.Errorf("extractor message not preserved: %v", err)
	}

	if _, statErr := os.Stat(req.TempPath); !os.IsNotExist(statErr) {
		t.Errorf("temp file %s still exists after failed upload", req.TempPath)
	}
	if meta.count() != 0 {
		t.Errorf("record created despite missing GPS")
	}
}

func TestUploadExtractorUnavailable(t *testing.T) {
	extractor := &fakeExtractor{err: fmt.Errorf("%w: connection refused", apperrors.ErrExtractor)}
	svc := NewUploadService(newFakeMetadataStore(), newFakeArtifactStore(), &fakeGeocoder{}, extractor)

	req := validUploadRequest(t)
	req.Latitude = ""
	req.Longitude = ""

	_, err := svc.Upload(context.Background(), req)
	if !errors.Is(err, apperrors.ErrExtractor) {
		t.Fatalf("error = %v, want ErrExtractor", err)
	}
	if _, statErr := os.Stat(req.TempPath); !os.IsNotExist(statErr) {
		t.Errorf("temp file still exists after extractor failure")
	}
}

func TestUploadStorageWriteFailure(t *testing.T) {
	meta := newFakeMetadataStore()
	store := newFakeArtifactStore()
	store.putErr = errors.New("bucket unavailable")
	svc := NewUploadService(meta, store, &fakeGeocoder{}, &fakeExtractor{})

	req := validUploadRequest(t)
	_, err := svc.Upload(context.Background(), req)
	if !errors.Is(err, apperrors.ErrStorageWrite) {
		t.Fatalf("error = %v, want ErrStorageWrite", err)
	}
	if meta.count() != 0 {
		t.Errorf("record created despite storage failure")
	}
	if _, statErr := os.Stat(req.TempPath); !os.IsNotExist(statErr) {
		t.Errorf("temp file still exists after storage failure")
	}
}

func TestUploadMetadataFailureLeavesArtifact(t *testing.T) {
	meta := newFakeMetadataStore()
	meta.createErr = errors.New("firestore down")
	store := newFakeArtifactStore()
	svc := NewUploadService(meta, store, &fakeGeocoder{}, &fakeExtractor{})

	_, err := svc.Upload(context.Background(), validUploadRequest(t))
	if !errors.Is(err, apperrors.ErrMetadataWrite) {
		t.Fatalf("error = %v, want ErrMetadataWrite", err)
	}

	// The artifact write is not rolled back.
	if len(store.objects) != 1 {
		t.Errorf("object count = %d, want 1 (orphaned artifact)", len(store.objects))
	}
}

func TestUploadNotIdempotent(t *testing.T) {
	meta := newFakeMetadataStore()
	store := newFakeArtifactStore()
	svc := NewUploadService(meta, store, &fakeGeocoder{}, &fakeExtractor{})

	if _, err := svc.Upload(context.Background(), validUploadRequest(t)); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := svc.Upload(context.Background(), validUploadRequest(t)); err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	if meta.count() != 2 {
		t.Errorf("record count = %d, want 2", meta.count())
	}
	if len(store.objects) != 2 {
		t.Errorf("object count = %d, want 2 distinct keys", len(store.objects))
	}
}

func TestObjectKey(t *testing.T) {
	ts := time.UnixMilli(1700000000000)

	if got, want := objectKey(ts, "photo.jpg"), "images/1700000000000-photo.jpg"; got != want {
		t.Errorf("objectKey = %q, want %q", got, want)
	}

	// Path components in the client-supplied name must not escape the prefix.
	if got, want := objectKey(ts, "../../etc/passwd"), "images/1700000000000-passwd"; got != want {
		t.Errorf("objectKey = %q, want %q", got, want)
	}
}
