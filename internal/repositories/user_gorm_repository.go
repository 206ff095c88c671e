package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"accounts/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.SessionToken = currentToken(user.Sessions)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by their stored email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetBySessionToken finds the user whose current session is token, through
// the indexed session_token column.
func (r *GORMUserRepository) GetBySessionToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	user, err := r.first(ctx, "session_token = ?", token)
	if err != nil {
		return nil, err
	}
	for _, s := range user.Sessions {
		if s.Token == token {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

// GetAll retrieves every user.
func (r *GORMUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// Count returns the number of stored users.
func (r *GORMUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// SetAddresses replaces the address references of a user. No other column
// is written.
func (r *GORMUserRepository) SetAddresses(ctx context.Context, id string, addressIDs []string) error {
	if addressIDs == nil {
		addressIDs = []string{}
	}
	res := r.db.WithContext(ctx).Model(&models.User{ID: id}).Select("addresses", "updated_at").
		Updates(&models.User{AddressIDs: addressIDs, UpdatedAt: time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to store addresses of user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found: %w", id, ErrNotFound)
	}
	return nil
}

// Update sets the given columns and returns the stored user.
func (r *GORMUserRepository) Update(ctx context.Context, id string, fields map[string]any) (*models.User, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update user %s: %w", id, translate(res.Error))
		}
	}
	return r.GetByID(ctx, id)
}

// SetSessions replaces the session set of a user.
func (r *GORMUserRepository) SetSessions(ctx context.Context, id string, sessions []models.Session) error {
	if sessions == nil {
		sessions = []models.Session{}
	}
	res := r.db.WithContext(ctx).Model(&models.User{ID: id}).Select("sessions", "session_token", "updated_at").
		Updates(&models.User{Sessions: sessions, SessionToken: currentToken(sessions), UpdatedAt: time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to store sessions of user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a user and reports how many rows were deleted.
func (r *GORMUserRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete user %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// currentToken is the value indexed for session lookups. A user holds at
// most one session, so only the first token is indexed.
func currentToken(sessions []models.Session) string {
	if len(sessions) == 0 {
		return ""
	}
	return sessions[0].Token
}

// translate maps driver level constraint errors onto repository sentinels.
// It relies on gorm.Config.TranslateError being enabled.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
