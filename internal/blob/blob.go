// Package blob provides the object store backends used for file bytes.
package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"file-drop/internal/files"
)

// Drivers accepted by Open.
const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Driver    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
}

// Store is a files.BlobStore that can also be probed by health checks.
type Store interface {
	files.BlobStore
	Ping(ctx context.Context) error
}

var (
	_ Store = (*MinioStore)(nil)
	_ Store = (*S3Store)(nil)
)

// Open connects to the configured backend and checks that the bucket exists.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blob bucket is not configured")
	}
	switch strings.ToLower(cfg.Driver) {
	case "", DriverMinio:
		return NewMinioStore(ctx, cfg)
	case DriverS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		secure = (u.Scheme == "https")
		return u.Host, secure, nil
	}

	// host:port without scheme is plain HTTP, as local MinIO runs.
	return raw, false, nil
}

func baseURL(endpoint string, secure bool) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: endpoint}
	return u.String()
}

// objectURL builds a path-style location for name.
func objectURL(endpoint string, secure bool, bucket, name string) string {
	return baseURL(endpoint, secure) + "/" + bucket + "/" + name
}
