package postgres

import "time"

// ProfileViewRecord is the serialized form of one profile view.
type ProfileViewRecord struct {
	ViewID   string    `json:"view_id"`
	ViewerID string    `json:"viewer_id"`
	ViewerIP string    `json:"viewer_ip"`
	ViewedAt time.Time `json:"viewed_at"`
}

// VisibilityRecord is the serialized visibility rule for one profile field.
type VisibilityRecord struct {
	ForContacts bool     `json:"for_contacts"`
	ForAllUsers bool     `json:"for_all_users"`
	BlackList   []string `json:"black_list"`
	WhiteList   []string `json:"white_list"`
}

// UserRecord is the flat projection of the aggregate shared by the store row
// and the external cache. All value objects are unwrapped to primitives; the
// cached copy may lag the store within its TTL window but never diverges in
// shape.
type UserRecord struct {
	UserID              string              `json:"user_id"`
	FirstName           string              `json:"first_name"`
	LastName            string              `json:"last_name"`
	BirthDate           *time.Time          `json:"birth_date"`
	Phone               string              `json:"phone"`
	Email               *string             `json:"email"`
	LanguageCode        string              `json:"language_code"`
	Bio                 *string             `json:"bio"`
	AvatarURL           string              `json:"avatar_url"`
	AvatarVisibility    VisibilityRecord    `json:"avatar_visibility"`
	BirthDateVisibility VisibilityRecord    `json:"birth_date_visibility"`
	PhoneVisibility     VisibilityRecord    `json:"phone_visibility"`
	EmailVisibility     VisibilityRecord    `json:"email_visibility"`
	ProfileViews        []ProfileViewRecord `json:"profile_views"`
	Status              string              `json:"status"`
	Version             int                 `json:"version"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}
