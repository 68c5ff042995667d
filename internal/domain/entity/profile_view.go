package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProfileView is one append-only record of a profile visit. Owned by
// User.ProfileViews; never mutated or removed individually.
type ProfileView struct {
	ViewID   uuid.UUID
	ViewerID uuid.UUID
	ViewerIP string
	ViewedAt time.Time
}
