package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"file-drop/internal/files"
	"file-drop/internal/models"
)

const fileColumns = `id, original_name, blob_name, content_type, size_bytes,
	uploaded_at, owner_id, is_deleted, deleted_at, blob_uri`

// Files is the PostgreSQL record store for uploaded files.
type Files struct {
	db *sql.DB
}

var _ files.RecordStore = (*Files)(nil)

func NewFiles(db *sql.DB) *Files {
	return &Files{db: db}
}

func (s *Files) InsertFile(ctx context.Context, f *models.StoredFile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (`+fileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID, f.OriginalName, f.BlobName, f.ContentType, f.SizeBytes,
		f.UploadedAt, f.OwnerID, f.IsDeleted, f.DeletedAt, f.BlobURI,
	)
	return err
}

// ActiveFilesByOwner lists the owner's non-deleted files, newest first.
func (s *Files) ActiveFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.StoredFile, error) {
	return s.query(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE owner_id = $1 AND NOT is_deleted
		ORDER BY uploaded_at DESC`, ownerID)
}

// LatestFileByOwner returns the owner's newest row for blobName, deleted or not.
func (s *Files) LatestFileByOwner(ctx context.Context, blobName string, ownerID uuid.UUID) (*models.StoredFile, error) {
	return s.queryOne(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE blob_name = $1 AND owner_id = $2
		ORDER BY uploaded_at DESC
		LIMIT 1`, blobName, ownerID)
}

// LatestActiveFile returns the newest non-deleted row for blobName.
func (s *Files) LatestActiveFile(ctx context.Context, blobName string) (*models.StoredFile, error) {
	return s.queryOne(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE blob_name = $1 AND NOT is_deleted
		ORDER BY uploaded_at DESC
		LIMIT 1`, blobName)
}

func (s *Files) MarkFileDeleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE files SET is_deleted = true, deleted_at = $2
		WHERE id = $1 AND NOT is_deleted`, id, at)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *Files) UpdateFileOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE files SET owner_id = $2 WHERE id = $1`, id, ownerID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *Files) ActiveFiles(ctx context.Context) ([]models.StoredFile, error) {
	return s.query(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE NOT is_deleted
		ORDER BY blob_name, uploaded_at DESC`)
}

func (s *Files) AllFiles(ctx context.Context) ([]models.StoredFile, error) {
	return s.query(ctx, `
		SELECT `+fileColumns+` FROM files
		ORDER BY blob_name, uploaded_at DESC`)
}

func (s *Files) DeleteFilesByBlobName(ctx context.Context, blobName string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE blob_name = $1`, blobName)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Files) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (s *Files) query(ctx context.Context, q string, args ...any) ([]models.StoredFile, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StoredFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (s *Files) queryOne(ctx context.Context, q string, args ...any) (*models.StoredFile, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, files.ErrNotFound
	}
	return f, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*models.StoredFile, error) {
	var (
		f         models.StoredFile
		deletedAt sql.NullTime
		blobURI   sql.NullString
	)
	err := row.Scan(&f.ID, &f.OriginalName, &f.BlobName, &f.ContentType, &f.SizeBytes,
		&f.UploadedAt, &f.OwnerID, &f.IsDeleted, &deletedAt, &blobURI)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		f.DeletedAt = &t
	}
	f.BlobURI = blobURI.String
	return &f, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return files.ErrNotFound
	}
	return nil
}
