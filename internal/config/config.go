// Package config loads process configuration from SFD_* environment
// variables and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved process configuration. It is read once at startup
// and not mutated afterwards.
type Config struct {
	Addr        string
	DatabaseURL string
	Env         string
	Version     string
	Commit      string

	Blob BlobConfig
	JWT  JWTConfig
	Log  LogConfig

	AdminUser string
	AdminPass string

	// MaxUploadBytes caps request bodies on upload. Zero means no limit.
	MaxUploadBytes int64

	RedisURL   string
	RateLimit  int
	RateWindow time.Duration
}

type BlobConfig struct {
	Driver    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type LogConfig struct {
	Level  string
	Format string
}

func defaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("env", "development")
	v.SetDefault("version", "dev")
	v.SetDefault("commit", "unknown")
	v.SetDefault("blob_driver", "minio")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("bucket", "uploads")
	v.SetDefault("jwt_ttl", 12*time.Hour)
	v.SetDefault("jwt_issuer", "file-drop")
	v.SetDefault("admin_user", "admin")
	v.SetDefault("max_upload_bytes", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("rate_limit", 10)
	v.SetDefault("rate_window", time.Minute)
}

// Load reads the environment and the file named by SFD_CONFIG, if any, and
// validates the result. The error lists every problem found.
func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("SFD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "SFD_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultMinioEndpoint applies only to the minio driver. The s3 driver with
// no endpoint talks to AWS.
const defaultMinioEndpoint = "localhost:9000"

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Addr:        v.GetString("addr"),
		DatabaseURL: v.GetString("database_url"),
		Env:         strings.ToLower(v.GetString("env")),
		Version:     v.GetString("version"),
		Commit:      v.GetString("commit"),
		Blob: BlobConfig{
			Driver:    strings.ToLower(v.GetString("blob_driver")),
			Endpoint:  v.GetString("s3_endpoint"),
			AccessKey: v.GetString("s3_access_key"),
			SecretKey: v.GetString("s3_secret_key"),
			Region:    v.GetString("s3_region"),
			Bucket:    v.GetString("bucket"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt_secret"),
			TTL:    v.GetDuration("jwt_ttl"),
			Issuer: v.GetString("jwt_issuer"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log_level")),
			Format: strings.ToLower(v.GetString("log_format")),
		},
		AdminUser:      v.GetString("admin_user"),
		AdminPass:      v.GetString("admin_pass"),
		MaxUploadBytes: v.GetInt64("max_upload_bytes"),
		RedisURL:       v.GetString("redis_url"),
		RateLimit:      v.GetInt("rate_limit"),
		RateWindow:     v.GetDuration("rate_window"),
	}
	if cfg.Blob.Endpoint == "" && cfg.Blob.Driver == "minio" {
		cfg.Blob.Endpoint = defaultMinioEndpoint
	}
	return cfg
}
