package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/storage"
)

// GetUserByLogin retrieves an active, non-deleted user by email or phone.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `
		SELECT id, email, phone, password_hash, full_name, role, store_info_id, is_active, created_at
		FROM users
		WHERE (email = $1 OR phone = $1) AND is_active = TRUE AND deleted_at IS NULL
	`

	var user models.User
	err := s.db.QueryRowContext(ctx, query, login).Scan(
		&user.ID, &user.Email, &user.Phone, &user.PasswordHash,
		&user.FullName, &user.Role, &user.StoreInfoID, &user.IsActive, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
