package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"file-drop/internal/models"
)

// MinioStore keeps blobs in one MinIO (or S3-compatible) bucket.
type MinioStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	secure   bool
}

// NewMinioStore connects with static credentials and verifies the bucket.
func NewMinioStore(ctx context.Context, cfg Config) (*MinioStore, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	s := &MinioStore{client: client, bucket: cfg.Bucket, endpoint: endpoint, secure: secure}
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Ping fails unless the bucket is reachable and exists.
func (s *MinioStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("minio bucket does not exist: %s", s.bucket)
	}
	return nil
}

func (s *MinioStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isMinioNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *MinioStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (models.BlobInfo, error) {
	info, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return models.BlobInfo{}, err
	}
	return models.BlobInfo{
		Name:         name,
		ContentType:  contentType,
		Size:         info.Size,
		LastModified: info.LastModified,
		URI:          s.URL(name),
	}, nil
}

// Delete removes the object. S3 semantics make removing a missing key a no-op.
func (s *MinioStore) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
	if err != nil && !isMinioNotFound(err) {
		return err
	}
	return nil
}

// List walks the bucket and stats each object for its content type.
func (s *MinioStore) List(ctx context.Context) ([]models.BlobInfo, error) {
	var out []models.BlobInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		st, err := s.client.StatObject(ctx, s.bucket, obj.Key, minio.StatObjectOptions{})
		if err != nil {
			if isMinioNotFound(err) {
				// deleted between list and stat
				continue
			}
			return nil, err
		}
		out = append(out, models.BlobInfo{
			Name:         obj.Key,
			ContentType:  st.ContentType,
			Size:         st.Size,
			LastModified: st.LastModified,
			URI:          s.URL(obj.Key),
		})
	}
	return out, nil
}

// URL is the path-style location of name in the bucket.
func (s *MinioStore) URL(name string) string {
	return objectURL(s.endpoint, s.secure, s.bucket, name)
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}
