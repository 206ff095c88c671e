package services

import (
	"context"
	"errors"
	"fmt"

	"accounts/internal/access"
	"accounts/internal/apperrors"
	"accounts/internal/cache"
	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/internal/validation"

	"github.com/google/uuid"
)

const manageAddressesDenied = "You cannot manage other users' addresses"

// AddAddress creates an address owned by userID and attaches it to the user.
// If the attach step fails the address document survives unattached and the
// call reports an InternalError.
func (s *AccountService) AddAddress(ctx context.Context, actor access.Actor, userID string, in models.AddressInput) (*models.UserWithAddresses, error) {
	if err := access.Require(access.CanManageAddressesOf(actor, userID), manageAddressesDenied); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

	address := &models.Address{
		ID:      uuid.New().String(),
		ZipCode: in.ZipCode,
		Country: in.Country,
		City:    in.City,
		Street:  in.Street,
		Number:  *in.Number,
		OwnerID: userID,
	}
	if err := s.addresses.Create(ctx, address); err != nil {
		return nil, apperrors.Internal("Could not create address", err)
	}
	s.broadcast(ctx, cache.CollectionAddresses)

	if err := s.aggregate.AttachAddress(ctx, userID, address.ID); err != nil {
		return nil, err
	}
	s.broadcast(ctx, cache.CollectionUsers)

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, user)
}

// GetAddresses lists the addresses owned by userID.
func (s *AccountService) GetAddresses(ctx context.Context, actor access.Actor, userID string) ([]models.Address, error) {
	if err := access.Require(access.CanManageAddressesOf(actor, userID), manageAddressesDenied); err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	list, err := s.addresses.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Could not list addresses", err)
	}
	if list == nil {
		list = []models.Address{}
	}
	return list, nil
}

// GetAddress returns a single address. Access is checked against the
// address's stored owner; the owner id in the request path is not trusted.
func (s *AccountService) GetAddress(ctx context.Context, actor access.Actor, userID, id string) (*models.Address, error) {
	address, err := s.loadAddress(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Require(access.CanManageAddressesOf(actor, address.OwnerID), manageAddressesDenied); err != nil {
		return nil, err
	}
	return address, nil
}

// UpdateAddress applies a partial update to an address. Access is checked
// against the stored owner. When userID names someone other than the stored
// owner the call is a reassignment, which only an admin may perform.
func (s *AccountService) UpdateAddress(ctx context.Context, actor access.Actor, userID, id string, in models.UpdateAddressInput) (*models.Address, error) {
	address, err := s.loadAddress(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Require(access.CanManageAddressesOf(actor, address.OwnerID), manageAddressesDenied); err != nil {
		return nil, err
	}
	previousOwner := address.OwnerID
	reassign := userID != "" && userID != previousOwner
	if reassign {
		if err := access.Require(access.CanReassignAddress(actor), "You cannot move addresses between users"); err != nil {
			return nil, err
		}
		if _, err := s.loadUser(ctx, userID); err != nil {
			return nil, err
		}
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	in.Apply(address)
	if reassign {
		address.OwnerID = userID
	}
	if err := s.addresses.Update(ctx, address); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("Address (%s) not found", id))
		}
		return nil, apperrors.Internal("Could not update address", err)
	}
	s.broadcast(ctx, cache.CollectionAddresses)

	if reassign {
		if err := s.aggregate.DetachAddress(ctx, previousOwner, id); err != nil && !apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, err
		}
		if err := s.aggregate.AttachAddress(ctx, userID, id); err != nil {
			return nil, err
		}
	}
	s.broadcast(ctx, cache.CollectionUsers)
	return address, nil
}

// RemoveAddress detaches the address from its stored owner and deletes it.
// If the delete fails after the detach, the reference is already gone and
// the call reports an InternalError.
func (s *AccountService) RemoveAddress(ctx context.Context, actor access.Actor, userID, id string) error {
	address, err := s.loadAddress(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Require(access.CanManageAddressesOf(actor, address.OwnerID), manageAddressesDenied); err != nil {
		return err
	}

	if err := s.aggregate.DetachAddress(ctx, address.OwnerID, id); err != nil && !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return err
	}
	s.broadcast(ctx, cache.CollectionUsers)

	n, err := s.addresses.Delete(ctx, id)
	if err != nil {
		return apperrors.Internal(fmt.Sprintf("Address (%s) detached but could not be deleted", id), err)
	}
	if n == 0 {
		return apperrors.NotFound(fmt.Sprintf("Address (%s) not found", id))
	}
	s.broadcast(ctx, cache.CollectionAddresses)
	return nil
}

func (s *AccountService) loadAddress(ctx context.Context, id string) (*models.Address, error) {
	address, err := s.addresses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("Address (%s) not found", id))
		}
		return nil, apperrors.Internal("Could not load address", err)
	}
	return address, nil
}
