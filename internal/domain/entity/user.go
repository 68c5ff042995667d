package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/luminhq/user-service/internal/domain/event"
)

// User is the aggregate root for the user domain. All mutation goes through
// its methods: each one updates a single logical field (or appends one profile
// view), records exactly one domain event and bumps the version by one.
type User struct {
	id        uuid.UUID
	version   int
	createdAt time.Time
	updatedAt time.Time
	events    []event.Event

	Username        Username
	BirthDate       *time.Time
	Phone           string
	Email           *string
	LanguageCode    string
	Bio             *string
	AvatarURL       string
	PrivacySettings PrivacySettings
	ProfileViews    []ProfileView
	Status          Status
}

// NewUser builds a fresh aggregate at version 0. It records no event; the
// application service raises the created event so the full creation payload
// is in one place.
func NewUser(
	id uuid.UUID,
	username Username,
	birthDate *time.Time,
	phone string,
	email *string,
	languageCode string,
	bio *string,
	avatarURL string,
	privacy PrivacySettings,
	profileViews []ProfileView,
	status Status,
) *User {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if !status.Valid() {
		status = StatusActive
	}
	now := time.Now().UTC()
	return &User{
		id:              id,
		createdAt:       now,
		updatedAt:       now,
		Username:        username,
		BirthDate:       birthDate,
		Phone:           phone,
		Email:           email,
		LanguageCode:    languageCode,
		Bio:             bio,
		AvatarURL:       avatarURL,
		PrivacySettings: privacy,
		ProfileViews:    profileViews,
		Status:          status,
	}
}

// Reconstitute rebuilds an aggregate from persisted state without recording
// events or touching the version.
func Reconstitute(
	id uuid.UUID,
	username Username,
	birthDate *time.Time,
	phone string,
	email *string,
	languageCode string,
	bio *string,
	avatarURL string,
	privacy PrivacySettings,
	profileViews []ProfileView,
	status Status,
	version int,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:              id,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		Username:        username,
		BirthDate:       birthDate,
		Phone:           phone,
		Email:           email,
		LanguageCode:    languageCode,
		Bio:             bio,
		AvatarURL:       avatarURL,
		PrivacySettings: privacy,
		ProfileViews:    profileViews,
		Status:          status,
	}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Version() int         { return u.version }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// Events returns a copy of the pending domain events in recorded order.
func (u *User) Events() []event.Event {
	out := make([]event.Event, len(u.events))
	copy(out, u.events)
	return out
}

// ClearEvents empties the pending event log.
func (u *User) ClearEvents() { u.events = u.events[:0] }

// RecordEvent appends one event to the pending log.
func (u *User) RecordEvent(e event.Event) { u.events = append(u.events, e) }

func (u *User) incrementVersion() {
	u.version++
	u.updatedAt = time.Now().UTC()
}

// RecordCreated raises the creation event with a snapshot of the new profile.
func (u *User) RecordCreated() {
	u.RecordEvent(event.New(event.TypeUserCreated, u.id, map[string]any{
		"user_id":       u.id.String(),
		"first_name":    u.Username.FirstName,
		"last_name":     u.Username.LastName,
		"phone":         u.Phone,
		"email":         strOrNil(u.Email),
		"language_code": u.LanguageCode,
		"avatar_url":    u.AvatarURL,
		"status":        string(u.Status),
	}))
}

func (u *User) ChangeUsername(newUsername Username) {
	u.Username = newUsername
	u.RecordEvent(event.New(event.TypeUserChangedUsername, u.id, map[string]any{
		"user_id":    u.id.String(),
		"first_name": newUsername.FirstName,
		"last_name":  newUsername.LastName,
	}))
	u.incrementVersion()
}

func (u *User) ChangeBirthDate(newBirthDate *time.Time) {
	u.BirthDate = newBirthDate
	var v any
	if newBirthDate != nil {
		v = newBirthDate.Format(time.RFC3339)
	}
	u.RecordEvent(event.New(event.TypeUserChangedBirthDate, u.id, map[string]any{
		"user_id":        u.id.String(),
		"new_birth_date": v,
	}))
	u.incrementVersion()
}

func (u *User) ChangeEmail(newEmail *string) {
	u.Email = newEmail
	u.RecordEvent(event.New(event.TypeUserChangedEmail, u.id, map[string]any{
		"user_id":   u.id.String(),
		"new_email": strOrNil(newEmail),
	}))
	u.incrementVersion()
}

func (u *User) ChangePhone(newPhone string) {
	u.Phone = newPhone
	u.RecordEvent(event.New(event.TypeUserChangedPhone, u.id, map[string]any{
		"user_id":   u.id.String(),
		"new_phone": newPhone,
	}))
	u.incrementVersion()
}

func (u *User) ChangeLanguageCode(newLanguageCode string) {
	u.LanguageCode = newLanguageCode
	u.RecordEvent(event.New(event.TypeUserChangedLanguageCode, u.id, map[string]any{
		"user_id":           u.id.String(),
		"new_language_code": newLanguageCode,
	}))
	u.incrementVersion()
}

func (u *User) ChangeBio(newBio *string) {
	u.Bio = newBio
	u.RecordEvent(event.New(event.TypeUserChangedBio, u.id, map[string]any{
		"user_id": u.id.String(),
		"new_bio": strOrNil(newBio),
	}))
	u.incrementVersion()
}

func (u *User) ChangeAvatarURL(newAvatarURL string) {
	u.AvatarURL = newAvatarURL
	u.RecordEvent(event.New(event.TypeUserChangedAvatarURL, u.id, map[string]any{
		"user_id":        u.id.String(),
		"new_avatar_url": newAvatarURL,
	}))
	u.incrementVersion()
}

func (u *User) ChangePrivacySettings(newSettings PrivacySettings) {
	u.PrivacySettings = newSettings
	u.RecordEvent(event.New(event.TypeUserChangedPrivacySettings, u.id, map[string]any{
		"user_id": u.id.String(),
	}))
	u.incrementVersion()
}

// RecordProfileView appends one view record.
func (u *User) RecordProfileView(viewID, viewerID uuid.UUID, viewerIP string) {
	if viewID == uuid.Nil {
		viewID = uuid.New()
	}
	view := ProfileView{
		ViewID:   viewID,
		ViewerID: viewerID,
		ViewerIP: viewerIP,
		ViewedAt: time.Now().UTC(),
	}
	u.ProfileViews = append(u.ProfileViews, view)
	u.RecordEvent(event.New(event.TypeUserRecordedProfileView, u.id, map[string]any{
		"user_id":   u.id.String(),
		"view_id":   view.ViewID.String(),
		"viewer_id": view.ViewerID.String(),
		"viewer_ip": view.ViewerIP,
	}))
	u.incrementVersion()
}

func (u *User) Block() {
	u.Status = StatusBlocked
	u.RecordEvent(event.New(event.TypeUserBlocked, u.id, map[string]any{
		"user_id": u.id.String(),
	}))
	u.incrementVersion()
}

func (u *User) Activate() {
	u.Status = StatusActive
	u.RecordEvent(event.New(event.TypeUserActivated, u.id, map[string]any{
		"user_id": u.id.String(),
	}))
	u.incrementVersion()
}

func (u *User) Deactivate() {
	u.Status = StatusInactive
	u.RecordEvent(event.New(event.TypeUserDeactivated, u.id, map[string]any{
		"user_id": u.id.String(),
	}))
	u.incrementVersion()
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
