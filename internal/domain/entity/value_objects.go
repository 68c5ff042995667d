package entity

import "github.com/google/uuid"

// Status is the user lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

// Valid reports whether s is one of the three enumerated states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusBlocked:
		return true
	}
	return false
}

// Username holds the displayable name pair.
type Username struct {
	FirstName string
	LastName  string
}

// FieldVisibility controls who may see a single profile field.
type FieldVisibility struct {
	ForContacts bool
	ForAllUsers bool
	BlackList   []uuid.UUID
	WhiteList   []uuid.UUID
}

// PrivacySettings groups per-field visibility rules.
type PrivacySettings struct {
	Avatar    FieldVisibility
	BirthDate FieldVisibility
	Phone     FieldVisibility
	Email     FieldVisibility
}

// DefaultPrivacySettings returns everything-visible settings with empty lists.
func DefaultPrivacySettings() PrivacySettings {
	open := FieldVisibility{ForContacts: true, ForAllUsers: true}
	return PrivacySettings{Avatar: open, BirthDate: open, Phone: open, Email: open}
}
