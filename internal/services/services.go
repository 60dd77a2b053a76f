package services

import (
	"context"

	"fieldsite-api/internal/models"
)

// Collaborator contracts consumed by the upload pipeline and the catalog.
// The concrete Firestore/R2/geocoder/extractor services satisfy these;
// tests substitute in-memory fakes.

type MetadataStore interface {
	CreateImageRecord(ctx context.Context, record *models.ImageRecord) (string, error)
	ListImageRecords(ctx context.Context) ([]*models.ImageRecord, error)
	DeleteImageRecord(ctx context.Context, id string) error
}

type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type AddressResolver interface {
	ResolveAddress(ctx context.Context, coords models.Coordinates) string
}

type GPSExtractor interface {
	ExtractGPS(ctx context.Context, fileName string, imageData []byte) (models.Coordinates, error)
}
