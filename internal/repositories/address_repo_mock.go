package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"accounts/internal/models"

	"github.com/google/uuid"
)

// MockAddressRepository is an in-memory implementation of AddressRepository.
type MockAddressRepository struct {
	addresses map[string]models.Address
	mu        sync.RWMutex
}

// NewMockAddressRepository creates a new instance of MockAddressRepository.
func NewMockAddressRepository() *MockAddressRepository {
	return &MockAddressRepository{
		addresses: make(map[string]models.Address),
	}
}

func (r *MockAddressRepository) Create(_ context.Context, address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if address.OwnerID == "" {
		return errors.New("address owner is required")
	}
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	now := time.Now()
	address.CreatedAt, address.UpdatedAt = now, now
	r.addresses[address.ID] = *address
	return nil
}

func (r *MockAddressRepository) GetByID(_ context.Context, id string) (*models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.addresses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *MockAddressRepository) GetByIDs(_ context.Context, ids []string) ([]models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Address, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.addresses[id]; ok {
			list = append(list, a)
		}
	}
	return list, nil
}

func (r *MockAddressRepository) ListByOwner(_ context.Context, ownerID string) ([]models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := []models.Address{}
	for _, a := range r.addresses {
		if a.OwnerID == ownerID {
			list = append(list, a)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *MockAddressRepository) Update(_ context.Context, address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.addresses[address.ID]
	if !ok {
		return fmt.Errorf("address with ID %s not found for update: %w", address.ID, ErrNotFound)
	}
	address.CreatedAt = stored.CreatedAt
	address.UpdatedAt = time.Now()
	r.addresses[address.ID] = *address
	return nil
}

func (r *MockAddressRepository) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.addresses[id]; !ok {
		return 0, nil
	}
	delete(r.addresses, id)
	return 1, nil
}

func (r *MockAddressRepository) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, a := range r.addresses {
		if a.OwnerID == ownerID {
			delete(r.addresses, id)
			n++
		}
	}
	return n, nil
}
