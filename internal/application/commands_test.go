package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminhq/user-service/internal/domain/entity"
	"github.com/luminhq/user-service/internal/domain/event"
)

func createCommand(id string) CreateUserCommand {
	email := "nils@example.com"
	return CreateUserCommand{
		UserID:       id,
		FirstName:    "Nils",
		LastName:     "Greve",
		Phone:        "+4915112345678",
		Email:        &email,
		LanguageCode: "de",
	}
}

func TestCreateUserCommand(t *testing.T) {
	store := newMemStore()
	cmds, bus := newTestCommands(store)
	id := uuid.NewString()

	res := cmds.CreateUser(context.Background(), createCommand(id))

	require.True(t, res.Success, res.Error)
	assert.Equal(t, id, res.UserID)
	require.NotNil(t, res.User)
	assert.Equal(t, "Nils", res.User.FirstName)
	assert.Equal(t, 0, res.User.Version)

	require.Len(t, bus.published, 1)
	assert.Equal(t, event.TypeUserCreated, bus.published[0].Type)

	stored := store.rows[uuid.MustParse(id)]
	require.NotNil(t, stored)
	assert.Empty(t, stored.Events(), "event log is empty after a successful drain")
}

func TestCreateUserCommandInvalidID(t *testing.T) {
	cmds, bus := newTestCommands(newMemStore())

	res := cmds.CreateUser(context.Background(), createCommand("not-a-uuid"))

	assert.False(t, res.Success)
	assert.Equal(t, CodeInvalidArgument, res.Code)
	assert.Empty(t, bus.published)
}

func TestCreateUserCommandDuplicate(t *testing.T) {
	store := newMemStore()
	cmds, _ := newTestCommands(store)
	id := uuid.NewString()

	require.True(t, cmds.CreateUser(context.Background(), createCommand(id)).Success)
	res := cmds.CreateUser(context.Background(), createCommand(id))

	assert.False(t, res.Success)
	assert.Equal(t, CodeConflict, res.Code)
}

func TestChangeEmailCommandsPublishInCallOrder(t *testing.T) {
	store := newMemStore()
	cmds, bus := newTestCommands(store)
	id := uuid.NewString()
	require.True(t, cmds.CreateUser(context.Background(), createCommand(id)).Success)

	first := "a@example.com"
	second := "b@example.com"
	require.True(t, cmds.ChangeEmail(context.Background(), ChangeEmailCommand{UserID: id, NewEmail: &first}).Success)
	res := cmds.ChangeEmail(context.Background(), ChangeEmailCommand{UserID: id, NewEmail: &second})
	require.True(t, res.Success)

	assert.Equal(t, 2, res.User.Version)
	require.NotNil(t, res.User.Email)
	assert.Equal(t, second, *res.User.Email)

	var emailEvents []event.Event
	for _, e := range bus.published {
		if e.Type == event.TypeUserChangedEmail {
			emailEvents = append(emailEvents, e)
		}
	}
	require.Len(t, emailEvents, 2)
	assert.Equal(t, first, emailEvents[0].Data["new_email"])
	assert.Equal(t, second, emailEvents[1].Data["new_email"])
}

func TestBlockThenActivatePublishInOrder(t *testing.T) {
	store := newMemStore()
	cmds, bus := newTestCommands(store)
	id := uuid.NewString()
	require.True(t, cmds.CreateUser(context.Background(), createCommand(id)).Success)

	require.True(t, cmds.BlockUser(context.Background(), BlockUserCommand{UserID: id}).Success)
	res := cmds.ActivateUser(context.Background(), ActivateUserCommand{UserID: id})
	require.True(t, res.Success)
	assert.Equal(t, "active", res.User.Status)

	types := make([]string, 0, len(bus.published))
	for _, e := range bus.published {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{event.TypeUserCreated, event.TypeUserBlocked, event.TypeUserActivated}, types)
}

func TestCommandOnUnknownUser(t *testing.T) {
	cmds, _ := newTestCommands(newMemStore())

	res := cmds.ChangeBio(context.Background(), ChangeBioCommand{UserID: uuid.NewString()})

	assert.False(t, res.Success)
	assert.Equal(t, CodeNotFound, res.Code)
}

func TestPublishFailureFailsCommandButKeepsMutation(t *testing.T) {
	store := newMemStore()
	cmds, bus := newTestCommands(store)
	id := uuid.NewString()
	require.True(t, cmds.CreateUser(context.Background(), createCommand(id)).Success)

	bus.publishErr = errors.New("broker down")
	res := cmds.ChangePhone(context.Background(), ChangePhoneCommand{UserID: id, NewPhone: "+4915100000000"})

	assert.False(t, res.Success, "publish failure surfaces even though the mutation committed")
	assert.Equal(t, CodeInternal, res.Code)

	stored := store.rows[uuid.MustParse(id)]
	require.NotNil(t, stored)
	assert.Equal(t, "+4915100000000", stored.Phone, "store mutation already committed")
	assert.Len(t, stored.Events(), 1, "unpublished event stays recorded for retry")
}

func TestRecordProfileViewCommandUsesCallerIP(t *testing.T) {
	store := newMemStore()
	cmds, bus := newTestCommands(store)
	id := uuid.NewString()
	require.True(t, cmds.CreateUser(context.Background(), createCommand(id)).Success)

	res := cmds.RecordProfileView(context.Background(), RecordProfileViewCommand{
		UserID: id, ViewerID: uuid.NewString(), ViewerIP: "203.0.113.9",
	})
	require.True(t, res.Success)

	last := bus.published[len(bus.published)-1]
	assert.Equal(t, event.TypeUserRecordedProfileView, last.Type)
	assert.Equal(t, "203.0.113.9", last.Data["viewer_ip"])
}

func TestDeleteUserCommand(t *testing.T) {
	store := newMemStore()
	cmds, bus := newTestCommands(store)
	id := uuid.NewString()
	require.True(t, cmds.CreateUser(context.Background(), createCommand(id)).Success)

	res := cmds.DeleteUser(context.Background(), DeleteUserCommand{UserID: id})
	require.True(t, res.Success)
	assert.Nil(t, res.User)

	last := bus.published[len(bus.published)-1]
	assert.Equal(t, event.TypeUserDeleted, last.Type)
	assert.Equal(t, id, last.AggregateID.String())

	after := cmds.GetUserByID(context.Background(), GetUserByIDQuery{UserID: id})
	assert.False(t, after.Success)
	assert.Equal(t, CodeNotFound, after.Code)
}

func TestGetUserByIDQueryReturnsView(t *testing.T) {
	store := newMemStore()
	cmds, _ := newTestCommands(store)
	id := uuid.NewString()
	require.True(t, cmds.CreateUser(context.Background(), createCommand(id)).Success)

	res := cmds.GetUserByID(context.Background(), GetUserByIDQuery{UserID: id})

	require.True(t, res.Success)
	require.NotNil(t, res.User)
	assert.Equal(t, id, res.User.UserID)
	assert.Equal(t, "active", res.User.Status)
}

func TestChangePrivacySettingsCommandInvalidList(t *testing.T) {
	store := newMemStore()
	cmds, _ := newTestCommands(store)
	id := uuid.NewString()
	require.True(t, cmds.CreateUser(context.Background(), createCommand(id)).Success)

	settings := PrivacyPayloadFrom(entity.DefaultPrivacySettings())
	settings.Email.BlackList = []string{"garbage"}
	res := cmds.ChangePrivacySettings(context.Background(), ChangePrivacySettingsCommand{UserID: id, NewSettings: settings})

	assert.False(t, res.Success)
	assert.Equal(t, CodeInvalidArgument, res.Code)
}
