package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	apperrors "fieldsite-api/internal/errors"
	"fieldsite-api/internal/models"
)

// CatalogService reads and purges the image catalog. Reads reduce the full
// collection to the most recent record per project; purge removes both the
// stored artifact and the metadata record for every entry.
type CatalogService struct {
	metadata  MetadataStore
	artifacts ArtifactStore
	logger    *log.Logger
}

func NewCatalogService(metadata MetadataStore, artifacts ArtifactStore) *CatalogService {
	return &CatalogService{
		metadata:  metadata,
		artifacts: artifacts,
		logger:    log.New(os.Stdout, "[Purge] ", log.LstdFlags),
	}
}

// LatestPerProject returns one record per distinct project name, the one
// with the maximum upload timestamp. When two records of a project share a
// timestamp the first one seen in collection order wins; no ordering
// guarantee is made for that case. Results are sorted by project name.
func (c *CatalogService) LatestPerProject(ctx context.Context) ([]*models.ImageRecord, error) {
	records, err := c.metadata.ListImageRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMetadataRead, err)
	}

	latest := make(map[string]*models.ImageRecord)
	for _, record := range records {
		current, ok := latest[record.ProjectName]
		if !ok || record.UploadedAt.After(current.UploadedAt) {
			latest[record.ProjectName] = record
		}
	}

	results := make([]*models.ImageRecord, 0, len(latest))
	for _, record := range latest {
		results = append(results, record)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ProjectName < results[j].ProjectName
	})

	return results, nil
}

// PurgeAll deletes every record's artifact and metadata document. Per-record
// deletions run concurrently and the result is reported only after all of
// them settle. Artifact deletion failures are warnings; metadata deletion
// failures surface as an error once the batch completes.
func (c *CatalogService) PurgeAll(ctx context.Context) (*models.PurgeResult, error) {
	records, err := c.metadata.ListImageRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMetadataRead, err)
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		deleted    int
		warnings   []string
		deleteErrs []error
	)

	for _, record := range records {
		wg.Add(1)
		go func(record *models.ImageRecord) {
			defer wg.Done()

			key := "images/" + record.FileName
			if err := c.artifacts.Delete(ctx, key); err != nil {
				c.logger.Printf("Artifact delete failed for %s: %v", key, err)
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("failed to delete artifact %s", key))
				mu.Unlock()
			}

			// Metadata removal is attempted regardless of the artifact outcome.
			if err := c.metadata.DeleteImageRecord(ctx, record.ID); err != nil {
				c.logger.Printf("Metadata delete failed for %s: %v", record.ID, err)
				mu.Lock()
				deleteErrs = append(deleteErrs, err)
				mu.Unlock()
				return
			}

			mu.Lock()
			deleted++
			mu.Unlock()
		}(record)
	}

	wg.Wait()

	result := &models.PurgeResult{Deleted: deleted, Warnings: warnings}

	if len(deleteErrs) > 0 {
		return result, fmt.Errorf("%w: %d of %d records", apperrors.ErrMetadataDelete, len(deleteErrs), len(records))
	}

	c.logger.Printf("Purged %d records (%d artifact warnings)", deleted, len(warnings))

	return result, nil
}
