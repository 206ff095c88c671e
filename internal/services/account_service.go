package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"accounts/internal/access"
	"accounts/internal/aggregate"
	"accounts/internal/apperrors"
	"accounts/internal/cache"
	"accounts/internal/credentials"
	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/internal/session"
	"accounts/internal/validation"

	"github.com/google/uuid"
)

const (
	// DefaultDeviceID is bound to the session issued at account creation
	// when the caller names no device.
	DefaultDeviceID = "default"
	// AdminDeviceID is bound to the seeded administrator's session.
	AdminDeviceID = "default admin"

	invalidCredentialsMessage = "Email or password is wrong"
)

// AccountService handles account lifecycle and address sub-resources. It
// authorizes every call, persists through the repositories, reconciles the
// user/address aggregate and publishes cache invalidations.
type AccountService struct {
	users       repositories.UserRepository
	addresses   repositories.AddressRepository
	credentials credentials.Verifier
	sessions    *session.Manager
	aggregate   *aggregate.Manager
	publisher   cache.Publisher
}

// NewAccountService creates a new AccountService. A nil publisher disables
// cache invalidation.
func NewAccountService(
	users repositories.UserRepository,
	addresses repositories.AddressRepository,
	verifier credentials.Verifier,
	sessions *session.Manager,
	publisher cache.Publisher,
) *AccountService {
	if publisher == nil {
		publisher = cache.Nop{}
	}
	return &AccountService{
		users:       users,
		addresses:   addresses,
		credentials: verifier,
		sessions:    sessions,
		aggregate:   aggregate.NewManager(users, addresses),
		publisher:   publisher,
	}
}

// Create registers a new user and authenticates it with an initial session.
// The email is stored in its normalized form; a normalized collision is a
// Conflict even when the raw strings differ.
func (s *AccountService) Create(ctx context.Context, in models.CreateUserInput, deviceID string) (*models.AuthenticatedUser, error) {
	return s.create(ctx, in, models.RoleUser, deviceID)
}

func (s *AccountService) create(ctx context.Context, in models.CreateUserInput, role models.Role, deviceID string) (*models.AuthenticatedUser, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(in.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, emailConflict()
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, apperrors.Internal("Could not check email", err)
	}

	hash, err := s.credentials.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Internal("Could not register user", err)
	}

	if deviceID == "" {
		deviceID = DefaultDeviceID
	}
	user := &models.User{
		ID:        uuid.New().String(),
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
		Role:      role,
		Status:    models.StatusActive,
	}
	sess, err := s.sessions.New(user.ID, deviceID)
	if err != nil {
		return nil, apperrors.Internal("Could not register user", err)
	}
	user.Sessions = append(user.Sessions, sess)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, emailConflict()
		}
		return nil, apperrors.Internal("Could not register user", err)
	}
	s.broadcast(ctx, cache.CollectionUsers)

	return &models.AuthenticatedUser{User: *user, Sessions: []models.Session{sess}}, nil
}

// Login checks the password of the user stored under email exactly as
// given (no normalization) and replaces the user's session. Unknown emails
// and wrong passwords produce the same error.
func (s *AccountService) Login(ctx context.Context, email, password, deviceID string) (*models.AuthenticatedUser, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.InvalidCredentials(invalidCredentialsMessage)
		}
		return nil, apperrors.Internal("Could not log in", err)
	}
	if !s.credentials.Verify(password, user.Password) {
		return nil, apperrors.InvalidCredentials(invalidCredentialsMessage)
	}

	if deviceID == "" {
		deviceID = "auto-" + uuid.New().String()
	}
	sess, err := s.sessions.Issue(ctx, user.ID, deviceID)
	if err != nil {
		return nil, err
	}
	user.Sessions = []models.Session{sess}
	s.broadcast(ctx, cache.CollectionUsers)

	return &models.AuthenticatedUser{User: *user, Sessions: user.Sessions}, nil
}

// Logout revokes the actor's own session.
func (s *AccountService) Logout(ctx context.Context, actor access.Actor) error {
	if err := s.sessions.Revoke(ctx, actor.ID); err != nil {
		return err
	}
	s.broadcast(ctx, cache.CollectionUsers)
	return nil
}

// Authenticate resolves the user holding a session token.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	return s.sessions.Validate(ctx, token)
}

// GetByAPIKey returns the user holding token, or nil when no user does.
func (s *AccountService) GetByAPIKey(ctx context.Context, token string) (*models.User, error) {
	user, err := s.sessions.Validate(ctx, token)
	if apperrors.IsCode(err, apperrors.CodeSessionInvalid) {
		return nil, nil
	}
	return user, err
}

// List returns every user with addresses resolved. pageNumber and pageSize
// are accepted but not applied to the result.
func (s *AccountService) List(ctx context.Context, actor access.Actor, pageNumber, pageSize int) ([]models.UserWithAddresses, error) {
	if err := access.Require(access.CanListAllUsers(actor), "You cannot see users' list"); err != nil {
		return nil, err
	}
	_, _ = pageNumber, pageSize

	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("Could not list users", err)
	}
	list := make([]models.UserWithAddresses, 0, len(users))
	for i := range users {
		populated, err := s.populate(ctx, &users[i])
		if err != nil {
			return nil, err
		}
		list = append(list, *populated)
	}
	return list, nil
}

// Get returns a single user with addresses resolved.
func (s *AccountService) Get(ctx context.Context, actor access.Actor, id string) (*models.UserWithAddresses, error) {
	if err := access.Require(access.CanViewUser(actor, id), "You cannot see other users"); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, user)
}

// Me returns the actor's own profile.
func (s *AccountService) Me(ctx context.Context, actor access.Actor) (*models.UserWithAddresses, error) {
	return s.Get(ctx, actor, actor.ID)
}

// Update applies a partial update. Role changes submitted by non-admins are
// dropped silently; a new password is hashed before storage.
func (s *AccountService) Update(ctx context.Context, actor access.Actor, id string, in models.UpdateUserInput) (*models.User, error) {
	if err := access.Require(access.CanModifyUser(actor, id), "You cannot update other users"); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	in = access.FilterUpdate(actor, in)
	if in.Empty() {
		return s.loadUser(ctx, id)
	}

	fields, err := s.updateFields(in)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, apperrors.NotFound("User not found")
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, emailConflict()
		}
		return nil, apperrors.Internal("Could not update user", err)
	}
	s.broadcast(ctx, cache.CollectionUsers)
	return user, nil
}

func (s *AccountService) updateFields(in models.UpdateUserInput) (map[string]any, error) {
	fields := make(map[string]any)
	if in.Email != nil {
		fields["email"] = models.NormalizeEmail(*in.Email)
	}
	if in.FirstName != nil {
		fields["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		fields["last_name"] = *in.LastName
	}
	if in.Password != nil {
		hash, err := s.credentials.Hash(*in.Password)
		if err != nil {
			return nil, apperrors.Internal("Could not update user", err)
		}
		fields["password"] = hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.Validation("Validation failed", apperrors.FieldError{Field: "role", Message: "is unknown"})
		}
		fields["role"] = *in.Role
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperrors.Validation("Validation failed", apperrors.FieldError{Field: "status", Message: "is unknown"})
		}
		fields["status"] = *in.Status
	}
	return fields, nil
}

// Remove deletes a user and then every address it owns. The user stays
// deleted even when the address cleanup fails; that failure is logged and
// returned as an InternalError.
func (s *AccountService) Remove(ctx context.Context, actor access.Actor, id string) error {
	if err := access.Require(access.CanDeleteUser(actor, id), "You cannot delete other users"); err != nil {
		return err
	}
	n, err := s.users.Delete(ctx, id)
	if err != nil {
		return apperrors.Internal("Could not delete user", err)
	}
	if n == 0 {
		return apperrors.NotFound(fmt.Sprintf("User (%s) not found", id))
	}
	s.broadcast(ctx, cache.CollectionUsers)

	removed, err := s.aggregate.CascadeDeleteAddresses(ctx, id)
	if err != nil {
		log.Printf("User %s deleted but address cleanup failed: %v", id, err)
		return err
	}
	log.Printf("User %s deleted with %d addresses", id, removed)
	// Cached address lists of the user are stale even when none were removed.
	s.broadcast(ctx, cache.CollectionAddresses)
	return nil
}

// SeedAdmin creates the administrator account when no user exists yet. It
// reports whether an account was created; running it again is a no-op.
func (s *AccountService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, apperrors.Internal("Could not count users", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.create(ctx, models.CreateUserInput{
		Email:     email,
		FirstName: "Default",
		LastName:  "Admin",
		Password:  password,
	}, models.RoleAdmin, AdminDeviceID)
	if err != nil {
		return false, fmt.Errorf("failed to seed admin user: %w", err)
	}
	return true, nil
}

func (s *AccountService) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("Could not load user", err)
	}
	return user, nil
}

func (s *AccountService) populate(ctx context.Context, user *models.User) (*models.UserWithAddresses, error) {
	addresses, err := s.addresses.GetByIDs(ctx, user.AddressIDs)
	if err != nil {
		return nil, apperrors.Internal("Could not resolve addresses", err)
	}
	return &models.UserWithAddresses{User: *user, Addresses: addresses}, nil
}

// broadcast publishes invalidations after a successful mutation. Publishing
// is best effort and never fails the operation.
func (s *AccountService) broadcast(ctx context.Context, collections ...string) {
	for _, c := range collections {
		if err := s.publisher.Publish(ctx, c); err != nil {
			log.Printf("Warning: failed to publish cache invalidation for %s: %v", c, err)
		}
	}
}

func emailConflict() error {
	return apperrors.Conflict("Email is exist!", apperrors.FieldError{Field: "email", Message: "is exist"})
}
