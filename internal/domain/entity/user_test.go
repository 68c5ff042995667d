package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminhq/user-service/internal/domain/event"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	email := "mira@example.com"
	return NewUser(
		uuid.New(),
		Username{FirstName: "Mira", LastName: "Voss"},
		nil,
		"+4915112345678",
		&email,
		"de",
		nil,
		"",
		DefaultPrivacySettings(),
		nil,
		StatusActive,
	)
}

func TestNewUserDefaults(t *testing.T) {
	u := newTestUser(t)

	assert.Equal(t, 0, u.Version())
	assert.Empty(t, u.Events(), "construction records no events")
	assert.Equal(t, StatusActive, u.Status)
	assert.False(t, u.CreatedAt().IsZero())
	assert.Equal(t, u.CreatedAt(), u.UpdatedAt())
}

func TestNewUserGeneratesMissingID(t *testing.T) {
	u := NewUser(uuid.Nil, Username{FirstName: "A", LastName: "B"}, nil, "", nil, "", nil, "", DefaultPrivacySettings(), nil, StatusActive)
	assert.NotEqual(t, uuid.Nil, u.ID())
}

func TestNewUserInvalidStatusFallsBackToActive(t *testing.T) {
	u := NewUser(uuid.New(), Username{}, nil, "", nil, "", nil, "", DefaultPrivacySettings(), nil, Status("frozen"))
	assert.Equal(t, StatusActive, u.Status)
}

func TestEachMutationBumpsVersionByOne(t *testing.T) {
	u := newTestUser(t)
	email := "new@example.com"
	bio := "hello"
	birth := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)

	mutations := []func(){
		func() { u.ChangeUsername(Username{FirstName: "M", LastName: "V"}) },
		func() { u.ChangeBirthDate(&birth) },
		func() { u.ChangeEmail(&email) },
		func() { u.ChangePhone("+4915100000000") },
		func() { u.ChangeLanguageCode("en") },
		func() { u.ChangeBio(&bio) },
		func() { u.ChangeAvatarURL("https://cdn.example.com/a.png") },
		func() { u.ChangePrivacySettings(DefaultPrivacySettings()) },
		func() { u.RecordProfileView(uuid.New(), uuid.New(), "10.0.0.1") },
		func() { u.Block() },
		func() { u.Activate() },
		func() { u.Deactivate() },
	}
	for i, m := range mutations {
		m()
		assert.Equal(t, i+1, u.Version())
	}
	assert.Len(t, u.Events(), len(mutations))
}

func TestEventsKeepRecordedOrder(t *testing.T) {
	u := newTestUser(t)
	u.RecordCreated()
	u.ChangePhone("+4915100000000")
	u.Block()

	events := u.Events()
	require.Len(t, events, 3)
	assert.Equal(t, event.TypeUserCreated, events[0].Type)
	assert.Equal(t, event.TypeUserChangedPhone, events[1].Type)
	assert.Equal(t, event.TypeUserBlocked, events[2].Type)
	for _, e := range events {
		assert.Equal(t, u.ID(), e.AggregateID)
	}
}

func TestRecordCreatedDoesNotBumpVersion(t *testing.T) {
	u := newTestUser(t)
	u.RecordCreated()

	require.Len(t, u.Events(), 1)
	assert.Equal(t, 0, u.Version())

	data := u.Events()[0].Data
	assert.Equal(t, u.ID().String(), data["user_id"])
	assert.Equal(t, "Mira", data["first_name"])
	assert.Equal(t, "mira@example.com", data["email"])
}

func TestChangeEmailToNil(t *testing.T) {
	u := newTestUser(t)
	u.ChangeEmail(nil)

	assert.Nil(t, u.Email)
	require.Len(t, u.Events(), 1)
	assert.Nil(t, u.Events()[0].Data["new_email"])
}

func TestRecordProfileViewAppendsViewAndEvent(t *testing.T) {
	u := newTestUser(t)
	viewID := uuid.New()
	viewerID := uuid.New()

	u.RecordProfileView(viewID, viewerID, "203.0.113.7")

	require.Len(t, u.ProfileViews, 1)
	view := u.ProfileViews[0]
	assert.Equal(t, viewID, view.ViewID)
	assert.Equal(t, viewerID, view.ViewerID)
	assert.Equal(t, "203.0.113.7", view.ViewerIP)
	assert.False(t, view.ViewedAt.IsZero())

	require.Len(t, u.Events(), 1)
	e := u.Events()[0]
	assert.Equal(t, event.TypeUserRecordedProfileView, e.Type)
	assert.Equal(t, viewID.String(), e.Data["view_id"])
	assert.Equal(t, viewerID.String(), e.Data["viewer_id"])
}

func TestStatusTransitions(t *testing.T) {
	u := newTestUser(t)

	u.Block()
	assert.Equal(t, StatusBlocked, u.Status)
	u.Deactivate()
	assert.Equal(t, StatusInactive, u.Status)
	u.Activate()
	assert.Equal(t, StatusActive, u.Status)

	types := make([]string, 0, 3)
	for _, e := range u.Events() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{event.TypeUserBlocked, event.TypeUserDeactivated, event.TypeUserActivated}, types)
}

func TestClearEvents(t *testing.T) {
	u := newTestUser(t)
	u.ChangePhone("+4915100000000")
	u.ClearEvents()

	assert.Empty(t, u.Events())
	assert.Equal(t, 1, u.Version(), "clearing the log does not undo the mutation")
}

func TestEventsReturnsCopy(t *testing.T) {
	u := newTestUser(t)
	u.Block()

	events := u.Events()
	events[0].Type = "tampered"
	assert.Equal(t, event.TypeUserBlocked, u.Events()[0].Type)
}

func TestReconstituteKeepsStateAndRaisesNothing(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	u := Reconstitute(id, Username{FirstName: "N", LastName: "K"}, nil, "", nil, "en", nil, "", DefaultPrivacySettings(), nil, StatusInactive, 7, created, updated)

	assert.Equal(t, id, u.ID())
	assert.Equal(t, 7, u.Version())
	assert.Equal(t, created, u.CreatedAt())
	assert.Equal(t, updated, u.UpdatedAt())
	assert.Equal(t, StatusInactive, u.Status)
	assert.Empty(t, u.Events())
}
