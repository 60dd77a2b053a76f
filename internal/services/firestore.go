package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fieldsite-api/internal/models"
)

type FirestoreService struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreService(client *firestore.Client, collection string) *FirestoreService {
	return &FirestoreService{
		client:     client,
		collection: collection,
	}
}

// Creates a new image record document and returns its generated ID.
func (fs *FirestoreService) CreateImageRecord(ctx context.Context, record *models.ImageRecord) (string, error) {
	docRef, _, err := fs.client.Collection(fs.collection).Add(ctx, record)
	if err != nil {
		return "", fmt.Errorf("failed to create record: %w", err)
	}

	return docRef.ID, nil
}

// Retrieves every image record in the collection with its document ID populated.
func (fs *FirestoreService) ListImageRecords(ctx context.Context) ([]*models.ImageRecord, error) {
	iter := fs.client.Collection(fs.collection).Documents(ctx)
	defer iter.Stop()

	var results []*models.ImageRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate documents: %w", err)
		}

		var record models.ImageRecord
		if err := doc.DataTo(&record); err != nil {
			// Log but don't fail on individual document parse errors
			continue
		}
		record.ID = doc.Ref.ID

		results = append(results, &record)
	}

	return results, nil
}

// Deletes an image record document by ID.
func (fs *FirestoreService) DeleteImageRecord(ctx context.Context, id string) error {
	_, err := fs.client.Collection(fs.collection).Doc(id).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return nil
}
