package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"file-drop/internal/models"
)

// Service runs file operations against a blob store and a record store.
type Service struct {
	blobs   BlobStore
	records RecordStore
	log     logrus.FieldLogger
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for upload and delete timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a Service. A nil logger discards output.
func NewService(blobs BlobStore, records RecordStore, log logrus.FieldLogger, opts ...Option) *Service {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := &Service{
		blobs:   blobs,
		records: records,
		log:     log.WithField("service", "files"),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadInput describes one file received from a client.
type UploadInput struct {
	Body         io.Reader
	Size         int64
	ContentType  string
	OriginalName string
	OwnerID      uuid.UUID
}

// UploadResult is returned to the client after a successful upload.
type UploadResult struct {
	BlobName     string    `json:"blobName"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URI          string    `json:"uri"`
}

// Upload stores the bytes under the sanitized name and then records the
// upload. A failed record insert leaves the blob for Audit to find.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.Body == nil || in.Size <= 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrValidation)
	}

	contentType := resolveContentType(in.ContentType, in.OriginalName)
	if !contentTypeAllowed(contentType) {
		return nil, fmt.Errorf("%w: content type %q is not allowed", ErrValidation, contentType)
	}

	blobName := Sanitize(in.OriginalName)
	if blobName == "" {
		return nil, ErrInvalidFilename
	}

	exists, err := s.blobs.Exists(ctx, blobName)
	if err != nil {
		return nil, storeErr("check blob", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: a file named %q already exists", ErrConflict, blobName)
	}

	info, err := s.blobs.Put(ctx, blobName, in.Body, in.Size, contentType)
	if err != nil {
		return nil, storeErr("write blob", err)
	}

	record := &models.StoredFile{
		ID:           uuid.New(),
		OriginalName: in.OriginalName,
		BlobName:     blobName,
		ContentType:  contentType,
		SizeBytes:    in.Size,
		UploadedAt:   s.now(),
		OwnerID:      in.OwnerID,
		BlobURI:      info.URI,
	}
	if err := s.records.InsertFile(ctx, record); err != nil {
		s.log.WithFields(logrus.Fields{"blob": blobName, "owner": in.OwnerID}).
			WithError(err).Error("record insert failed, blob left orphaned")
		return nil, storeErr("insert record", err)
	}

	s.log.WithFields(logrus.Fields{"blob": blobName, "owner": in.OwnerID, "size": in.Size}).Info("file uploaded")

	lastModified := info.LastModified
	if lastModified.IsZero() {
		lastModified = record.UploadedAt
	}
	return &UploadResult{
		BlobName:     blobName,
		ContentType:  contentType,
		Size:         in.Size,
		LastModified: lastModified,
		URI:          info.URI,
	}, nil
}

// ListBlobs returns every object in the blob store.
func (s *Service) ListBlobs(ctx context.Context) ([]models.BlobInfo, error) {
	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return nil, storeErr("list blobs", err)
	}
	if blobs == nil {
		blobs = []models.BlobInfo{}
	}
	return blobs, nil
}

// MyFiles returns the owner's active files, newest first.
func (s *Service) MyFiles(ctx context.Context, ownerID uuid.UUID) ([]models.StoredFile, error) {
	list, err := s.records.ActiveFilesByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list owner files", err)
	}
	if list == nil {
		list = []models.StoredFile{}
	}
	return list, nil
}

// Delete soft-deletes the caller's current version of blobName and removes
// the blob itself.
func (s *Service) Delete(ctx context.Context, blobName string, callerID uuid.UUID) (*models.StoredFile, error) {
	if blobName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}

	record, err := s.records.LatestFileByOwner(ctx, blobName, callerID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: no file named %q", ErrNotFound, blobName)
	}
	if err != nil {
		return nil, storeErr("find record", err)
	}

	at := s.now()
	if !record.MarkDeleted(at) {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyDeleted, blobName)
	}

	if err := s.blobs.Delete(ctx, blobName); err != nil {
		return nil, storeErr("delete blob", err)
	}
	if err := s.records.MarkFileDeleted(ctx, record.ID, at); err != nil {
		s.log.WithFields(logrus.Fields{"blob": blobName, "record": record.ID}).
			WithError(err).Error("blob deleted but record not marked")
		return nil, storeErr("mark record deleted", err)
	}

	s.log.WithFields(logrus.Fields{"blob": blobName, "owner": callerID}).Info("file soft-deleted")
	return record, nil
}
