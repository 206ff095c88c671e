package repositories

import (
	"context"
	"errors"

	"accounts/internal/models"
)

var (
	// ErrNotFound is returned when no document matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository defines the interface for user data access.
//
// SetAddresses and SetSessions each write a single field. Two
// load-modify-write sequences on the same user's addresses race and the
// last one wins; they never touch sessions, credentials or role.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySessionToken(ctx context.Context, token string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	SetAddresses(ctx context.Context, id string, addressIDs []string) error
	Update(ctx context.Context, id string, fields map[string]any) (*models.User, error)
	SetSessions(ctx context.Context, id string, sessions []models.Session) error
	Delete(ctx context.Context, id string) (int64, error)
}
