package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"file-drop/internal/auth"
	"file-drop/internal/models"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     models.Role
}

const principalKey ctxKey = "principal"

// PrincipalFromContext returns the caller set by requireAuth.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// bearerPrincipal verifies the Authorization header. ok is false when no
// bearer token was sent at all.
func (s *Server) bearerPrincipal(r *http.Request) (p Principal, ok bool, err error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return Principal{}, false, nil
	}
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return Principal{}, true, auth.ErrInvalidToken
	}
	claims, err := s.tokens.Parse(strings.TrimSpace(tok))
	if err != nil {
		return Principal{}, true, err
	}
	return Principal{UserID: claims.UserID, Username: claims.Subject, Role: claims.Role}, true, nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok, err := s.bearerPrincipal(r)
		if !ok || err != nil {
			writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin authenticates and then checks the admin capability.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFromContext(r.Context())
		if !p.Role.CanAdminister() {
			writeErrorMsg(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func mustPrincipal(r *http.Request) Principal {
	p, _ := PrincipalFromContext(r.Context())
	return p
}
