package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"file-drop/internal/auth"
	"file-drop/internal/files"
	"file-drop/internal/logging"
)

// BuildInfo is reported by the health endpoint.
type BuildInfo struct {
	Version string
	Commit  string
}

type Config struct {
	Addr  string // e.g. ":8080"
	Build BuildInfo

	// MaxUploadBytes caps upload request bodies. Zero disables the cap.
	MaxUploadBytes int64
}

// Deps are the collaborators the handlers call. Activity, Limiter, Lockout
// and Checks are optional.
type Deps struct {
	Files    *files.Service
	Accounts *auth.Accounts
	Tokens   *auth.Issuer
	Activity ActivityLog
	Limiter  Limiter
	Lockout  *AccountLockout
	Checks   map[string]Pinger
	Log      logrus.FieldLogger
}

type Server struct {
	cfg        Config
	files      *files.Service
	accounts   *auth.Accounts
	tokens     *auth.Issuer
	activity   ActivityLog
	limiter    Limiter
	lockout    *AccountLockout
	checks     map[string]Pinger
	log        logrus.FieldLogger
	httpServer *http.Server
}

func New(cfg Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		cfg:      cfg,
		files:    deps.Files,
		accounts: deps.Accounts,
		tokens:   deps.Tokens,
		activity: deps.Activity,
		limiter:  deps.Limiter,
		lockout:  deps.Lockout,
		checks:   deps.Checks,
		log:      log.WithField("service", "http"),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("GET /ready", s.HandleReady)
	mux.HandleFunc("GET /live", s.HandleLive)

	mux.Handle("POST /api/auth/register", s.rateLimited(http.HandlerFunc(s.RegisterHandler)))
	mux.Handle("POST /api/auth/login", s.rateLimited(http.HandlerFunc(s.LoginHandler)))

	mux.Handle("POST /api/storage/upload", s.requireAuth(http.HandlerFunc(s.UploadHandler)))
	mux.Handle("GET /api/storage/azure-files", s.requireAuth(http.HandlerFunc(s.ListBlobsHandler)))
	mux.Handle("GET /api/storage/my-files", s.requireAuth(http.HandlerFunc(s.MyFilesHandler)))
	mux.Handle("DELETE /api/storage/files/{fileName}", s.requireAuth(http.HandlerFunc(s.DeleteFileHandler)))

	mux.Handle("GET /api/storage/audit-files", s.requireAdmin(http.HandlerFunc(s.AuditHandler)))
	mux.Handle("POST /api/storage/transfer-ownership", s.requireAdmin(http.HandlerFunc(s.TransferHandler)))
	mux.Handle("GET /api/storage/admin/file-inventory", s.requireAdmin(http.HandlerFunc(s.InventoryHandler)))
	mux.Handle("GET /api/storage/admin/activity", s.requireAdmin(http.HandlerFunc(s.ActivityHandler)))

	// requestID -> logging -> compression -> security headers -> mux
	var handler http.Handler = mux
	handler = securityHeadersMiddleware(handler)
	handler = compressionMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
