package storage

import (
	"context"

	"github.com/araneta/postoko-sub002/models"
)

// UserStore defines the interface for looking up authenticated principals.
type UserStore interface {
	// GetUserByLogin retrieves an active, non-deleted user by email or
	// phone.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
