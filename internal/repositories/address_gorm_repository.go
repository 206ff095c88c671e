package repositories

import (
	"context"
	"errors"
	"fmt"

	"accounts/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMAddressRepository is a GORM implementation of AddressRepository.
type GORMAddressRepository struct {
	db *gorm.DB
}

// NewGORMAddressRepository creates a new instance of GORMAddressRepository.
func NewGORMAddressRepository(db *gorm.DB) *GORMAddressRepository {
	return &GORMAddressRepository{db: db}
}

// Create creates a new address in the database.
func (r *GORMAddressRepository) Create(ctx context.Context, address *models.Address) error {
	if address.OwnerID == "" {
		return errors.New("address owner is required")
	}
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

// GetByID retrieves a single address by its ID from the database.
func (r *GORMAddressRepository) GetByID(ctx context.Context, id string) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get address by ID %s: %w", id, err)
	}
	return &address, nil
}

func (r *GORMAddressRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Address, error) {
	if len(ids) == 0 {
		return []models.Address{}, nil
	}
	var found []models.Address
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve addresses: %w", err)
	}
	byID := make(map[string]models.Address, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	ordered := make([]models.Address, 0, len(found))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

// ListByOwner returns the addresses whose owner is ownerID.
func (r *GORMAddressRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Address, error) {
	addresses := []models.Address{}
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to list addresses of %s: %w", ownerID, err)
	}
	return addresses, nil
}

// Update updates an existing address in the database.
func (r *GORMAddressRepository) Update(ctx context.Context, address *models.Address) error {
	res := r.db.WithContext(ctx).Model(address).Select("*").Omit("id", "created_at").Updates(address)
	if res.Error != nil {
		return fmt.Errorf("failed to update address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address with ID %s not found for update: %w", address.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes an address by its ID from the database.
func (r *GORMAddressRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Address{}, "id = ?", id)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete address: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByOwner deletes every address owned by ownerID.
func (r *GORMAddressRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.Address{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete addresses of %s: %w", ownerID, res.Error)
	}
	return res.RowsAffected, nil
}
