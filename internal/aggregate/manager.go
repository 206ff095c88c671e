// Package aggregate keeps a user's address references in step with the
// address documents that name the user as owner.
//
// None of the multi-step sequences here are transactional. A failure midway
// leaves the aggregate drifted and is reported as an InternalError; nothing
// is rolled back and nothing is retried.
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"accounts/internal/apperrors"
	"accounts/internal/repositories"
)

// Manager reconciles users and addresses.
type Manager struct {
	users     repositories.UserRepository
	addresses repositories.AddressRepository
}

// NewManager creates a Manager over the two repositories.
func NewManager(users repositories.UserRepository, addresses repositories.AddressRepository) *Manager {
	return &Manager{users: users, addresses: addresses}
}

// AttachAddress appends addressID to the user's references. The address
// document must already exist with its owner set; if writing the reference
// fails the address is left orphaned. Only the address list is written, so
// concurrent session or profile changes are kept.
func (m *Manager) AttachAddress(ctx context.Context, userID, addressID string) error {
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return m.loadError(userID, err)
	}
	if user.HasAddress(addressID) {
		return nil
	}
	user.AddressIDs = append(user.AddressIDs, addressID)
	if err := m.users.SetAddresses(ctx, userID, user.AddressIDs); err != nil {
		return apperrors.Internal(fmt.Sprintf("Address (%s) created but could not be attached to user (%s)", addressID, userID), err)
	}
	return nil
}

// DetachAddress removes addressID from the user's references. Callers delete
// the address document afterwards; if that delete fails the reference is
// already gone.
func (m *Manager) DetachAddress(ctx context.Context, userID, addressID string) error {
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return m.loadError(userID, err)
	}
	kept := user.AddressIDs[:0]
	for _, id := range user.AddressIDs {
		if id != addressID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(user.AddressIDs) {
		return nil
	}
	user.AddressIDs = kept
	if err := m.users.SetAddresses(ctx, userID, user.AddressIDs); err != nil {
		return apperrors.Internal(fmt.Sprintf("Could not detach address (%s) from user (%s)", addressID, userID), err)
	}
	return nil
}

// CascadeDeleteAddresses deletes every address owned by userID. It runs
// after the user itself is gone and never brings the user back.
func (m *Manager) CascadeDeleteAddresses(ctx context.Context, userID string) (int64, error) {
	n, err := m.addresses.DeleteByOwner(ctx, userID)
	if err != nil {
		return n, apperrors.Internal(fmt.Sprintf("Could not delete addresses of user (%s)", userID), err)
	}
	return n, nil
}

func (m *Manager) loadError(userID string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound(fmt.Sprintf("User (%s) not found", userID))
	}
	return apperrors.Internal(fmt.Sprintf("Could not load user (%s)", userID), err)
}
