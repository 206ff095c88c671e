package models

import "time"

// Session is an active bearer credential bound to a device.
type Session struct {
	Token    string `json:"token"`
	DeviceID string `json:"deviceId"`
}

// User represents an account. Addresses holds weak references to the
// owned Address documents, in attach order.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	FirstName    string    `json:"firstName" gorm:"type:varchar(100)"`
	LastName     string    `json:"lastName" gorm:"type:varchar(100)"`
	Password     string    `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	Role         Role      `json:"role" gorm:"not null"`
	Status       Status    `json:"status" gorm:"not null"`
	AddressIDs   []string  `json:"addresses" gorm:"column:addresses;type:text;serializer:json"`
	Sessions     []Session `json:"-" gorm:"type:text;serializer:json"`
	// SessionToken mirrors the current session token for indexed lookups.
	SessionToken string    `json:"-" gorm:"index;type:varchar(255)"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	c.AddressIDs = append([]string(nil), u.AddressIDs...)
	c.Sessions = append([]Session(nil), u.Sessions...)
	return &c
}

// HasAddress reports whether addressID is referenced by the user.
func (u *User) HasAddress(addressID string) bool {
	for _, id := range u.AddressIDs {
		if id == addressID {
			return true
		}
	}
	return false
}

// UserWithAddresses is a user whose address references are resolved inline.
type UserWithAddresses struct {
	User
	Addresses []Address `json:"addresses"`
}

// AuthenticatedUser is returned by create and login together with the
// freshly issued session.
type AuthenticatedUser struct {
	User
	Sessions []Session `json:"apiKeys"`
}

// CreateUserInput is the accepted shape for account creation.
type CreateUserInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Password  string `json:"password" validate:"required"`
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Password  *string `json:"password" validate:"omitempty,min=1"`
	Role      *Role   `json:"role"`
	Status    *Status `json:"status"`
}

// Empty reports whether the update carries no field at all.
func (in UpdateUserInput) Empty() bool {
	return in.Email == nil && in.FirstName == nil && in.LastName == nil &&
		in.Password == nil && in.Role == nil && in.Status == nil
}
