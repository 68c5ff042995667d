package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminhq/user-service/internal/domain/entity"
)

func fullTestUser() *entity.User {
	email := "ada@example.com"
	bio := "systems engineer"
	birth := time.Date(1988, 11, 23, 0, 0, 0, 0, time.UTC)
	blocked := uuid.New()
	trusted := uuid.New()

	privacy := entity.DefaultPrivacySettings()
	privacy.Email = entity.FieldVisibility{
		ForContacts: true,
		ForAllUsers: false,
		BlackList:   []uuid.UUID{blocked},
		WhiteList:   []uuid.UUID{trusted},
	}

	views := []entity.ProfileView{{
		ViewID:   uuid.New(),
		ViewerID: uuid.New(),
		ViewerIP: "198.51.100.4",
		ViewedAt: time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC),
	}}

	return entity.Reconstitute(
		uuid.New(),
		entity.Username{FirstName: "Ada", LastName: "Keller"},
		&birth,
		"+4917612345678",
		&email,
		"de",
		&bio,
		"https://cdn.example.com/ada.png",
		privacy,
		views,
		entity.StatusBlocked,
		12,
		time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC),
	)
}

func TestMapperRoundTrip(t *testing.T) {
	var m UserMapper
	u := fullTestUser()

	got, err := m.ToDomain(m.ToRecord(u))
	require.NoError(t, err)

	assert.Equal(t, u.ID(), got.ID())
	assert.Equal(t, u.Username, got.Username)
	assert.Equal(t, u.BirthDate, got.BirthDate)
	assert.Equal(t, u.Phone, got.Phone)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.LanguageCode, got.LanguageCode)
	assert.Equal(t, u.Bio, got.Bio)
	assert.Equal(t, u.AvatarURL, got.AvatarURL)
	assert.Equal(t, u.PrivacySettings, got.PrivacySettings)
	assert.Equal(t, u.ProfileViews, got.ProfileViews)
	assert.Equal(t, u.Status, got.Status)
	assert.Equal(t, u.Version(), got.Version())
	assert.Equal(t, u.CreatedAt(), got.CreatedAt())
	assert.Equal(t, u.UpdatedAt(), got.UpdatedAt())
}

func TestMapperRoundTripMinimalUser(t *testing.T) {
	var m UserMapper
	u := entity.Reconstitute(
		uuid.New(),
		entity.Username{FirstName: "Bo", LastName: "Lind"},
		nil, "", nil, "", nil, "",
		entity.DefaultPrivacySettings(),
		nil,
		entity.StatusActive,
		0,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	)

	got, err := m.ToDomain(m.ToRecord(u))
	require.NoError(t, err)
	assert.Nil(t, got.BirthDate)
	assert.Nil(t, got.Email)
	assert.Nil(t, got.Bio)
	assert.Empty(t, got.ProfileViews)
	assert.Equal(t, 0, got.Version())
}

func TestMapperRejectsBadUserID(t *testing.T) {
	var m UserMapper
	rec := m.ToRecord(fullTestUser())
	rec.UserID = "not-a-uuid"

	_, err := m.ToDomain(rec)
	assert.Error(t, err)
}

func TestMapperRejectsBadVisibilityEntry(t *testing.T) {
	var m UserMapper
	rec := m.ToRecord(fullTestUser())
	rec.EmailVisibility.BlackList = []string{"garbage"}

	_, err := m.ToDomain(rec)
	assert.Error(t, err)
}

func TestMapperRejectsBadViewID(t *testing.T) {
	var m UserMapper
	rec := m.ToRecord(fullTestUser())
	rec.ProfileViews[0].ViewID = "garbage"

	_, err := m.ToDomain(rec)
	assert.Error(t, err)
}
