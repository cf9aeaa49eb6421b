package repository

import (
	"context"
	"fmt"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

// CreateUser returns ErrConflict when the email is already registered.
func (s *SQLiteDB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, account_type, is_admin, home_suburb, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, string(u.AccountType), boolInt(u.IsAdmin), u.HomeSuburb, toMillis(u.CreatedAt))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `id = ?`, id)
}

func (s *SQLiteDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `email = ?`, email)
}

func (s *SQLiteDB) getUser(ctx context.Context, where string, arg string) (*models.User, error) {
	var (
		u       models.User
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, account_type, is_admin, COALESCE(home_suburb, ''), created_at
		FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.AccountType, &u.IsAdmin, &u.HomeSuburb, &created)
	if err != nil {
		return nil, notFound(err)
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}
