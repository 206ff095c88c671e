package repositories

import (
	"context"

	"accounts/internal/models"
)

// AddressRepository defines the interface for address data access.
type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	GetByID(ctx context.Context, id string) (*models.Address, error)
	// GetByIDs resolves references, preserving the order of ids and
	// skipping the ones that no longer exist.
	GetByIDs(ctx context.Context, ids []string) ([]models.Address, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Address, error)
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
