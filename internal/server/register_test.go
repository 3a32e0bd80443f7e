package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"file-drop/internal/auth"
	"file-drop/internal/models"
)

func TestRegisterHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "new_user", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := decodeBody[RegisterResponse](t, rr)
	assert.Equal(t, "new_user", resp.Username)
	assert.Equal(t, models.RoleUser, resp.Role)
	assert.NotEmpty(t, resp.ID)
	assert.NotContains(t, rr.Body.String(), "password")

	rr = env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "new_user", "password": "password2",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, env.activity.actions(), models.ActivityRegister)
}

func TestRegisterHandler_PasswordByteBoundary(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "max_pw", "password": strings.Repeat("a1", auth.MaxPasswordBytes/2),
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Username: "max_pw", Password: strings.Repeat("a1", auth.MaxPasswordBytes/2),
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "over_pw", "password": strings.Repeat("a1", auth.MaxPasswordBytes/2) + "b",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"password must be at most 72 bytes"}`, rr.Body.String())
}

func TestRegisterHandler_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		body     map[string]string
		contains string
	}{
		{"short username", map[string]string{"username": "ab", "password": "password1"}, "username"},
		{"bad chars", map[string]string{"username": "bad-name", "password": "password1"}, "letters, numbers, and underscores"},
		{"short password", map[string]string{"username": "carol", "password": "pw1"}, "password"},
		{"no digits", map[string]string{"username": "carol", "password": "passwordonly"}, "letters and numbers"},
		{"long password", map[string]string{"username": "carol", "password": strings.Repeat("a1", 37)}, "at most 72 bytes"},
		{"long multibyte password", map[string]string{"username": "carol", "password": strings.Repeat("é", 36) + "a1"}, "at most 72 bytes"},
		{"unknown role", map[string]string{"username": "carol", "password": "password1", "role": "owner"}, "unknown role"},
		{"missing", map[string]string{}, "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.doJSON(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.contains)
		})
	}

	rr := env.do(t, http.MethodPost, "/api/auth/register", "", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterHandler_AdminRole(t *testing.T) {
	env := newTestEnv(t)
	_, userTok := env.user(t, "alice", models.RoleUser)
	_, adminTok := env.user(t, "root", models.RoleAdmin)
	body := map[string]string{"username": "second_admin", "password": "password1", "role": "admin"}

	rr := env.doJSON(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.doJSON(t, http.MethodPost, "/api/auth/register", userTok, body)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.doJSON(t, http.MethodPost, "/api/auth/register", adminTok, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, models.RoleAdmin, decodeBody[RegisterResponse](t, rr).Role)
}

func TestRegisterHandler_RoleCaseNormalized(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "dave", "password": "password1", "role": "User",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, models.RoleUser, decodeBody[RegisterResponse](t, rr).Role)
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnv(t)
	u, _ := env.user(t, "alice", models.RoleAdmin)

	rr := env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	sess := decodeBody[auth.Session](t, rr)
	assert.Equal(t, models.RoleAdmin, sess.Role)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	claims, err := env.tokens.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	rr = env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "alice", Password: "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "ghost", Password: "password1"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "alice"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginHandler_Lockout(t *testing.T) {
	env := newTestEnv(t, func(_ *Config, d *Deps) {
		d.Lockout = NewAccountLockout(2, time.Minute, time.Minute)
	})
	env.user(t, "alice", models.RoleUser)
	bad := LoginRequest{Username: "alice", Password: "wrong1"}

	assert.Equal(t, http.StatusUnauthorized, env.doJSON(t, http.MethodPost, "/api/auth/login", "", bad).Code)
	assert.Equal(t, http.StatusUnauthorized, env.doJSON(t, http.MethodPost, "/api/auth/login", "", bad).Code)

	rr := env.doJSON(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "alice", Password: "password1"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestAuthRoutesRateLimited(t *testing.T) {
	env := newTestEnv(t, func(_ *Config, d *Deps) {
		d.Limiter = NewMemoryLimiter(2, time.Minute)
	})
	bad := LoginRequest{Username: "x", Password: "y"}

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, env.doJSON(t, http.MethodPost, "/api/auth/login", "", bad).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, env.doJSON(t, http.MethodPost, "/api/auth/login", "", bad).Code)

	// register has its own bucket
	rr := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "erin", "password": "password1"})
	assert.Equal(t, http.StatusCreated, rr.Code)
}
