package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Role is the authorization level of a user account.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

// Status is the lifecycle state of a user account.
type Status int

const (
	StatusInactive Status = iota
	StatusActive
)

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleAdmin:
		return "ADMIN"
	default:
		return "Role(" + strconv.Itoa(int(r)) + ")"
	}
}

// ParseRole accepts either the role name or its numeric value.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USER", "0":
		return RoleUser, nil
	case "ADMIN", "1":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %d", int(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	parsed, err := ParseRole(unquote(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusInactive, StatusActive:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "INACTIVE"
	case StatusActive:
		return "ACTIVE"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseStatus accepts either the status name or its numeric value.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INACTIVE", "0":
		return StatusInactive, nil
	case "ACTIVE", "1":
		return StatusActive, nil
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	parsed, err := ParseStatus(unquote(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func unquote(data []byte) string {
	if unquoted, err := strconv.Unquote(string(data)); err == nil {
		return unquoted
	}
	return string(data)
}
