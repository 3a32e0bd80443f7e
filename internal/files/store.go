package files

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"file-drop/internal/models"
)

// BlobStore is the object store holding file bytes keyed by blob name.
type BlobStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (models.BlobInfo, error)
	// Delete removes the object. A missing object is not an error.
	Delete(ctx context.Context, name string) error
	// List returns every object with metadata fetched from the store.
	List(ctx context.Context) ([]models.BlobInfo, error)
}

// RecordStore persists StoredFile rows. Lookups of absent rows return
// ErrNotFound.
type RecordStore interface {
	InsertFile(ctx context.Context, f *models.StoredFile) error
	ActiveFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.StoredFile, error)
	LatestFileByOwner(ctx context.Context, blobName string, ownerID uuid.UUID) (*models.StoredFile, error)
	LatestActiveFile(ctx context.Context, blobName string) (*models.StoredFile, error)
	MarkFileDeleted(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateFileOwner(ctx context.Context, id, ownerID uuid.UUID) error
	ActiveFiles(ctx context.Context) ([]models.StoredFile, error)
	AllFiles(ctx context.Context) ([]models.StoredFile, error)
	// DeleteFilesByBlobName hard-deletes every row with the name.
	DeleteFilesByBlobName(ctx context.Context, blobName string) (int64, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}
