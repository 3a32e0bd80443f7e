package models

import (
	"time"

	"github.com/google/uuid"
)

// FileState is the lifecycle position of a StoredFile row.
type FileState string

const (
	FileStateActive      FileState = "active"
	FileStateSoftDeleted FileState = "soft_deleted"
)

// StoredFile records one upload event. Several rows may share a BlobName;
// the newest row is the current version of that name.
type StoredFile struct {
	ID           uuid.UUID  `json:"id"`
	OriginalName string     `json:"originalName"`
	BlobName     string     `json:"blobName"`
	ContentType  string     `json:"contentType"`
	SizeBytes    int64      `json:"size"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	OwnerID      uuid.UUID  `json:"ownerId"`
	IsDeleted    bool       `json:"isDeleted"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
	BlobURI      string     `json:"blobUri"`
}

// State derives the lifecycle state from the stored flags.
func (f StoredFile) State() FileState {
	if f.IsDeleted {
		return FileStateSoftDeleted
	}
	return FileStateActive
}

// MarkDeleted moves an active row to SoftDeleted. It returns false when the
// row was already soft-deleted.
func (f *StoredFile) MarkDeleted(at time.Time) bool {
	if f.State() == FileStateSoftDeleted {
		return false
	}
	f.IsDeleted = true
	f.DeletedAt = &at
	return true
}
