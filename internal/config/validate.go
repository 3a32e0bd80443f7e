package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validator collects every problem instead of stopping at the first.
type Validator struct {
	errors []ValidationError
}

func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

func (v *Validator) Errors() []ValidationError { return v.errors }

// Err returns nil or one error describing all problems.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d error(s):", len(v.errors))
	for i, err := range v.errors {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}
	return fmt.Errorf("%s", sb.String())
}

func (v *Validator) Required(key, value string) {
	if value == "" {
		v.AddError(key, "required setting not set")
	}
}

func (v *Validator) Port(key, addr string) {
	if addr == "" {
		return
	}
	i := strings.LastIndex(addr, ":")
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		v.AddError(key, "port must be a number")
		return
	}
	if port < 1 || port > 65535 {
		v.AddError(key, "port must be between 1 and 65535")
	}
}

func (v *Validator) MinLength(key, value string, minLen int) {
	if value == "" {
		return
	}
	if len(value) < minLen {
		v.AddError(key, fmt.Sprintf("must be at least %d characters long (got %d)", minLen, len(value)))
	}
}

func (v *Validator) Enum(key, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, opt := range allowed {
		if value == opt {
			return
		}
	}
	v.AddError(key, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), value))
}

func (v *Validator) URLScheme(key, value string, schemes ...string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil {
		v.AddError(key, fmt.Sprintf("invalid URL format: %v", err))
		return
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return
		}
	}
	v.AddError(key, fmt.Sprintf("URL must use one of: %s", strings.Join(schemes, ", ")))
}

// Validate checks cross-field rules. Keys are reported by their env names.
func (c *Config) Validate() error {
	v := &Validator{}

	v.Required("SFD_DATABASE_URL", c.DatabaseURL)
	v.URLScheme("SFD_DATABASE_URL", c.DatabaseURL, "postgres", "postgresql")

	v.Required("SFD_JWT_SECRET", c.JWT.Secret)
	v.MinLength("SFD_JWT_SECRET", c.JWT.Secret, 32)
	if c.JWT.TTL <= 0 {
		v.AddError("SFD_JWT_TTL", "must be a positive duration")
	}

	v.Port("SFD_ADDR", c.Addr)

	v.Enum("SFD_BLOB_DRIVER", c.Blob.Driver, "minio", "s3")
	v.Required("SFD_BUCKET", c.Blob.Bucket)
	if c.Blob.Driver == "minio" {
		v.Required("SFD_S3_ENDPOINT", c.Blob.Endpoint)
		v.Required("SFD_S3_ACCESS_KEY", c.Blob.AccessKey)
		v.Required("SFD_S3_SECRET_KEY", c.Blob.SecretKey)
	}
	if strings.Contains(c.Blob.Endpoint, "://") {
		v.URLScheme("SFD_S3_ENDPOINT", c.Blob.Endpoint, "http", "https")
	}

	if c.AdminPass != "" {
		v.Required("SFD_ADMIN_USER", c.AdminUser)
		v.MinLength("SFD_ADMIN_PASS", c.AdminPass, 8)
	}

	if c.MaxUploadBytes < 0 {
		v.AddError("SFD_MAX_UPLOAD_BYTES", "must not be negative")
	}

	v.Enum("SFD_LOG_FORMAT", c.Log.Format, "json", "text")
	v.Enum("SFD_LOG_LEVEL", c.Log.Level, "debug", "info", "warn", "error")
	v.Enum("SFD_ENV", c.Env, "development", "production", "staging", "test")

	v.URLScheme("SFD_REDIS_URL", c.RedisURL, "redis", "rediss")
	if c.RateLimit < 0 {
		v.AddError("SFD_RATE_LIMIT", "must not be negative")
	}
	if c.RateLimit > 0 && c.RateWindow <= 0 {
		v.AddError("SFD_RATE_WINDOW", "must be a positive duration")
	}

	return v.Err()
}

// Warnings lists optional settings worth a startup notice.
func (c *Config) Warnings() []string {
	var out []string
	if c.AdminPass == "" {
		out = append(out, "SFD_ADMIN_PASS not set - no admin account will be seeded")
	}
	if c.Log.Format != "json" && c.Env != "production" {
		out = append(out, "SFD_LOG_FORMAT is text - consider json for production")
	}
	if c.RedisURL == "" {
		out = append(out, "SFD_REDIS_URL not set - rate limits are per process")
	}
	if c.MaxUploadBytes == 0 {
		out = append(out, "SFD_MAX_UPLOAD_BYTES not set - uploads are unbounded")
	}
	return out
}
