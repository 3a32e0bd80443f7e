package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"file-drop/internal/files"
	"file-drop/internal/models"
)

// ErrBadCredentials is returned by Login for an unknown user or wrong password.
var ErrBadCredentials = errors.New("invalid username or password")

// UserStore persists accounts. Absent users yield files.ErrNotFound and a
// duplicate username yields files.ErrConflict.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Accounts registers users and exchanges credentials for tokens.
type Accounts struct {
	users  UserStore
	tokens *Issuer
	now    func() time.Time
}

func NewAccounts(users UserStore, tokens *Issuer) *Accounts {
	return &Accounts{users: users, tokens: tokens, now: func() time.Time { return time.Now().UTC() }}
}

// Register creates a user with the given role. Input validation happens at
// the transport layer.
func (a *Accounts) Register(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", files.ErrValidation, role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", files.ErrValidation, err)
	}
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    a.now(),
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Role      models.Role  `json:"role"`
	User      *models.User `json:"-"`
}

func (a *Accounts) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := a.users.UserByUsername(ctx, username)
	if errors.Is(err, files.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	tok, exp, err := a.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, ExpiresAt: exp, Role: u.Role, User: u}, nil
}

// EnsureAdmin creates an ADMIN account named username unless one with that
// name already exists. It reports whether a user was created.
func (a *Accounts) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	_, err := a.users.UserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, files.ErrNotFound) {
		return false, err
	}
	if _, err := a.Register(ctx, username, password, models.RoleAdmin); err != nil {
		if errors.Is(err, files.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
