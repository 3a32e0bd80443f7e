package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"file-drop/internal/auth"
	"file-drop/internal/blob"
	"file-drop/internal/config"
	"file-drop/internal/db"
	"file-drop/internal/files"
	"file-drop/internal/logging"
	"file-drop/internal/server"
)

const (
	maxLoginAttempts = 5
	loginLockout     = 15 * time.Minute
	loginWindow      = 10 * time.Minute
	shutdownTimeout  = 5 * time.Second
	blobMaxFailures  = 5
	blobCooldown     = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "service=backend msg=%q err=%v\n", "config_invalid", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Env: cfg.Env})
	log := logger.WithField("service", "backend")
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("backend stopped")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	log.Info("running migrations")
	if err := db.RunMigrations(conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migrations complete")

	store, err := blob.Open(ctx, blob.Config{
		Driver:    cfg.Blob.Driver,
		Endpoint:  cfg.Blob.Endpoint,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		Region:    cfg.Blob.Region,
		Bucket:    cfg.Blob.Bucket,
	})
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	tokens := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)
	accounts := auth.NewAccounts(db.NewUsers(conn), tokens)
	if cfg.AdminPass != "" {
		created, err := accounts.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPass)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			log.WithField("user", cfg.AdminUser).Info("admin account created")
		}
	}

	limiter, closeLimiter, err := newLimiter(cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		Build:          server.BuildInfo{Version: cfg.Version, Commit: cfg.Commit},
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, server.Deps{
		Files:    files.NewService(blob.NewBreaker(store, blobMaxFailures, blobCooldown, log), db.NewFiles(conn), log.WithField("component", "files")),
		Accounts: accounts,
		Tokens:   tokens,
		Activity: db.NewActivity(conn),
		Limiter:  limiter,
		Lockout:  server.NewAccountLockout(maxLoginAttempts, loginLockout, loginWindow),
		Checks: map[string]server.Pinger{
			"database": server.PingFunc(conn.PingContext),
			"blob":     store,
		},
		Log: log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Addr,
			"version": cfg.Version,
			"commit":  cfg.Commit,
			"blob":    cfg.Blob.Driver,
		}).Info("starting")
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

// newLimiter picks the shared redis limiter when SFD_REDIS_URL is set and the
// in-process limiter otherwise. A rate limit of zero disables limiting.
func newLimiter(cfg *config.Config, log logrus.FieldLogger) (server.Limiter, func(), error) {
	noop := func() {}
	if cfg.RateLimit <= 0 {
		return nil, noop, nil
	}
	if cfg.RedisURL == "" {
		return server.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow), noop, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, noop, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	log.WithField("addr", opts.Addr).Info("using redis rate limiter")
	return server.NewRedisLimiter(client, cfg.RateLimit, cfg.RateWindow), func() { _ = client.Close() }, nil
}
