// Package session issues, validates and revokes bearer session tokens.
//
// A user holds at most one active session. Issuing a session replaces the
// whole stored set, so logging in from a second device invalidates the token
// held by the first one.
package session

import (
	"context"
	"errors"
	"fmt"

	"accounts/internal/apperrors"
	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/internal/tokens"
)

const invalidSessionMessage = "Invalid or expired session"

// Manager owns the single session slot of every user.
type Manager struct {
	users  repositories.UserRepository
	tokens tokens.Generator
}

// NewManager creates a session manager storing sessions through users.
func NewManager(users repositories.UserRepository, gen tokens.Generator) *Manager {
	return &Manager{users: users, tokens: gen}
}

// New mints a session record for userID without storing it. Callers that
// persist the user themselves (account creation) attach it directly.
func (m *Manager) New(userID, deviceID string) (models.Session, error) {
	token, err := m.tokens.Generate(userID)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to generate session token: %w", err)
	}
	return models.Session{Token: token, DeviceID: deviceID}, nil
}

// Issue mints a session and stores it as the user's only session.
func (m *Manager) Issue(ctx context.Context, userID, deviceID string) (models.Session, error) {
	s, err := m.New(userID, deviceID)
	if err != nil {
		return models.Session{}, apperrors.Internal("Could not issue session", err)
	}
	if err := m.users.SetSessions(ctx, userID, []models.Session{s}); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Session{}, apperrors.NotFound("User not found")
		}
		return models.Session{}, apperrors.Internal("Could not store session", err)
	}
	return s, nil
}

// Validate resolves the user currently holding token.
func (m *Manager) Validate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.SessionInvalid(invalidSessionMessage)
	}
	if checker, ok := m.tokens.(tokens.Checker); ok {
		if err := checker.Check(token); err != nil {
			return nil, apperrors.SessionInvalid(invalidSessionMessage)
		}
	}
	user, err := m.users.GetBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.SessionInvalid(invalidSessionMessage)
		}
		return nil, apperrors.Internal("Could not validate session", err)
	}
	return user, nil
}

// Revoke clears every session of the user.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.users.SetSessions(ctx, userID, nil); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("User not found")
		}
		return apperrors.Internal("Could not revoke session", err)
	}
	return nil
}
