package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"file-drop/internal/files"
	"file-drop/internal/models"
)

const uniqueViolation = "23505"

// Users stores accounts.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// CreateUser inserts u. A taken username yields files.ErrConflict.
func (s *Users) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, u.PasswordHash, string(u.Role), u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: username %q is taken", files.ErrConflict, u.Username)
	}
	return err
}

func (s *Users) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.queryOne(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users WHERE username = $1`, username)
}

func (s *Users) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.queryOne(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users WHERE id = $1`, id)
}

func (s *Users) queryOne(ctx context.Context, q string, arg any) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := s.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, files.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Role, err = models.ParseRole(role); err != nil {
		return nil, err
	}
	return &u, nil
}
