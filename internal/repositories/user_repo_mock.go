package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"accounts/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// Stored documents are copied on the way in and out, so callers never share
// state with the store.
type MockUserRepository struct {
	users map[string]*models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*models.User),
	}
}

func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("user %s: %w", user.ID, ErrDuplicate)
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	user.SessionToken = currentToken(user.Sessions)
	r.users[user.ID] = user.Clone()
	return nil
}

func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MockUserRepository) GetBySessionToken(_ context.Context, token string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return nil, ErrNotFound
	}
	for _, u := range r.users {
		for _, s := range u.Sessions {
			if s.Token == token {
				return u.Clone(), nil
			}
		}
	}
	return nil, ErrNotFound
}

func (r *MockUserRepository) GetAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		list = append(list, *u.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *MockUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *MockUserRepository) SetAddresses(_ context.Context, id string, addressIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user with ID %s not found: %w", id, ErrNotFound)
	}
	stored.AddressIDs = append([]string(nil), addressIDs...)
	stored.UpdatedAt = time.Now()
	return nil
}

// Update understands the column names used by the GORM repository.
func (r *MockUserRepository) Update(_ context.Context, id string, fields map[string]any) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := stored.Clone()
	for column, value := range fields {
		switch column {
		case "email":
			next.Email = value.(string)
		case "first_name":
			next.FirstName = value.(string)
		case "last_name":
			next.LastName = value.(string)
		case "password":
			next.Password = value.(string)
		case "role":
			next.Role = value.(models.Role)
		case "status":
			next.Status = value.(models.Status)
		default:
			return nil, fmt.Errorf("unknown user column %q", column)
		}
	}
	for otherID, u := range r.users {
		if otherID != id && u.Email == next.Email {
			return nil, fmt.Errorf("email %s: %w", next.Email, ErrDuplicate)
		}
	}
	next.UpdatedAt = time.Now()
	r.users[id] = next
	return next.Clone(), nil
}

func (r *MockUserRepository) SetSessions(_ context.Context, id string, sessions []models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user with ID %s not found: %w", id, ErrNotFound)
	}
	stored.Sessions = append([]models.Session(nil), sessions...)
	stored.SessionToken = currentToken(sessions)
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *MockUserRepository) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}
