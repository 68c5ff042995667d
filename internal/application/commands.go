package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/internal/domain/entity"
	"github.com/luminhq/user-service/internal/domain/event"
	"github.com/luminhq/user-service/internal/domain/repository"
)

// Error codes carried in Result so callers on the far side of the task
// queue can still tell failure classes apart.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeInternal        = "internal"
)

// ErrInvalidArgument wraps command payload parse failures.
var ErrInvalidArgument = errors.New("invalid argument")

// Result is the uniform outcome shape stored in the task result backend
// and returned to API callers.
type Result struct {
	Success bool      `json:"success"`
	UserID  string    `json:"user_id,omitempty"`
	User    *UserView `json:"user,omitempty"`
	Code    string    `json:"code,omitempty"`
	Error   string    `json:"error,omitempty"`
}

func failure(err error) Result {
	return Result{Success: false, Code: classify(err), Error: err.Error()}
}

func classify(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, repository.ErrUserNotFound):
		return CodeNotFound
	case errors.Is(err, repository.ErrUserAlreadyExists):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// Command payloads. Fields are primitive so every command survives a trip
// through the task queue unchanged.

type CreateUserCommand struct {
	UserID       string          `json:"user_id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	BirthDate    *string         `json:"birth_date"`
	Phone        string          `json:"phone"`
	Email        *string         `json:"email"`
	LanguageCode string          `json:"language_code"`
	Bio          *string         `json:"bio"`
	AvatarURL    string          `json:"avatar_url"`
	Privacy      *PrivacyPayload `json:"privacy_settings"`
}

type ChangeUsernameCommand struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ChangeBirthDateCommand struct {
	UserID       string  `json:"user_id"`
	NewBirthDate *string `json:"new_birth_date"`
}

type ChangeEmailCommand struct {
	UserID   string  `json:"user_id"`
	NewEmail *string `json:"new_email"`
}

type ChangePhoneCommand struct {
	UserID   string `json:"user_id"`
	NewPhone string `json:"new_phone"`
}

type ChangeLanguageCodeCommand struct {
	UserID          string `json:"user_id"`
	NewLanguageCode string `json:"new_language_code"`
}

type ChangeBioCommand struct {
	UserID string  `json:"user_id"`
	NewBio *string `json:"new_bio"`
}

type ChangeAvatarURLCommand struct {
	UserID       string `json:"user_id"`
	NewAvatarURL string `json:"new_avatar_url"`
}

type ChangePrivacySettingsCommand struct {
	UserID      string         `json:"user_id"`
	NewSettings PrivacyPayload `json:"new_settings"`
}

type RecordProfileViewCommand struct {
	UserID   string `json:"user_id"`
	ViewerID string `json:"viewer_id"`
	ViewerIP string `json:"viewer_ip"`
}

type BlockUserCommand struct {
	UserID string `json:"user_id"`
}

type ActivateUserCommand struct {
	UserID string `json:"user_id"`
}

type DeactivateUserCommand struct {
	UserID string `json:"user_id"`
}

type DeleteUserCommand struct {
	UserID string `json:"user_id"`
}

type GetUserByIDQuery struct {
	UserID string `json:"user_id"`
}

// Commands executes use cases end to end: run the service method, then
// drain the aggregate's recorded events through the bus. A publish failure
// fails the whole command even though the mutation already committed; the
// retained events make the gap visible to the caller.
type Commands struct {
	Service *Service
	Bus     event.Bus
	Logger  *logrus.Logger
}

func NewCommands(svc *Service, bus event.Bus, logger *logrus.Logger) *Commands {
	return &Commands{Service: svc, Bus: bus, Logger: logger}
}

func (c *Commands) finish(ctx context.Context, u *entity.User, err error) Result {
	if err != nil {
		return failure(err)
	}
	if err := c.Bus.ProcessEvents(ctx, u); err != nil {
		c.Logger.WithError(err).WithField("user_id", u.ID()).Error("event publication failed")
		return failure(err)
	}
	return Result{Success: true, UserID: u.ID().String(), User: NewUserView(u)}
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: parse user id %q: %v", ErrInvalidArgument, s, err)
	}
	return id, nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: parse birth date %q: %v", ErrInvalidArgument, *s, err)
	}
	return &t, nil
}

func (c *Commands) CreateUser(ctx context.Context, cmd CreateUserCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	birth, err := parseDate(cmd.BirthDate)
	if err != nil {
		return failure(err)
	}
	var privacy *entity.PrivacySettings
	if cmd.Privacy != nil {
		ps, err := cmd.Privacy.ToDomain()
		if err != nil {
			return failure(err)
		}
		privacy = &ps
	}
	u, err := c.Service.CreateUser(ctx, CreateUserInput{
		ID:           id,
		Username:     entity.Username{FirstName: cmd.FirstName, LastName: cmd.LastName},
		BirthDate:    birth,
		Phone:        cmd.Phone,
		Email:        cmd.Email,
		LanguageCode: cmd.LanguageCode,
		Bio:          cmd.Bio,
		AvatarURL:    cmd.AvatarURL,
		Privacy:      privacy,
	})
	return c.finish(ctx, u, err)
}

func (c *Commands) ChangeUsername(ctx context.Context, cmd ChangeUsernameCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.ChangeUsername(ctx, id, entity.Username{FirstName: cmd.FirstName, LastName: cmd.LastName})
	return c.finish(ctx, u, err)
}

func (c *Commands) ChangeBirthDate(ctx context.Context, cmd ChangeBirthDateCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	birth, err := parseDate(cmd.NewBirthDate)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.ChangeBirthDate(ctx, id, birth)
	return c.finish(ctx, u, err)
}

func (c *Commands) ChangeEmail(ctx context.Context, cmd ChangeEmailCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.ChangeEmail(ctx, id, cmd.NewEmail)
	return c.finish(ctx, u, err)
}

func (c *Commands) ChangePhone(ctx context.Context, cmd ChangePhoneCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.ChangePhone(ctx, id, cmd.NewPhone)
	return c.finish(ctx, u, err)
}

func (c *Commands) ChangeLanguageCode(ctx context.Context, cmd ChangeLanguageCodeCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.ChangeLanguageCode(ctx, id, cmd.NewLanguageCode)
	return c.finish(ctx, u, err)
}

func (c *Commands) ChangeBio(ctx context.Context, cmd ChangeBioCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.ChangeBio(ctx, id, cmd.NewBio)
	return c.finish(ctx, u, err)
}

func (c *Commands) ChangeAvatarURL(ctx context.Context, cmd ChangeAvatarURLCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.ChangeAvatarURL(ctx, id, cmd.NewAvatarURL)
	return c.finish(ctx, u, err)
}

func (c *Commands) ChangePrivacySettings(ctx context.Context, cmd ChangePrivacySettingsCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	settings, err := cmd.NewSettings.ToDomain()
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.ChangePrivacySettings(ctx, id, settings)
	return c.finish(ctx, u, err)
}

func (c *Commands) RecordProfileView(ctx context.Context, cmd RecordProfileViewCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	viewerID, err := uuid.Parse(cmd.ViewerID)
	if err != nil {
		return failure(fmt.Errorf("%w: parse viewer id %q: %v", ErrInvalidArgument, cmd.ViewerID, err))
	}
	u, err := c.Service.RecordProfileView(ctx, id, viewerID, cmd.ViewerIP)
	return c.finish(ctx, u, err)
}

func (c *Commands) BlockUser(ctx context.Context, cmd BlockUserCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.Block(ctx, id)
	return c.finish(ctx, u, err)
}

func (c *Commands) ActivateUser(ctx context.Context, cmd ActivateUserCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.Activate(ctx, id)
	return c.finish(ctx, u, err)
}

func (c *Commands) DeactivateUser(ctx context.Context, cmd DeactivateUserCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.Deactivate(ctx, id)
	return c.finish(ctx, u, err)
}

func (c *Commands) DeleteUser(ctx context.Context, cmd DeleteUserCommand) Result {
	id, err := parseID(cmd.UserID)
	if err != nil {
		return failure(err)
	}
	if err := c.Service.Delete(ctx, id); err != nil {
		return failure(err)
	}
	// No aggregate left to drain; announce the deletion directly so
	// projections can drop their documents.
	if err := c.Bus.Publish(ctx, event.New(event.TypeUserDeleted, id, nil)); err != nil {
		c.Logger.WithError(err).WithField("user_id", id).Error("event publication failed")
		return failure(err)
	}
	return Result{Success: true, UserID: id.String()}
}

func (c *Commands) GetUserByID(ctx context.Context, q GetUserByIDQuery) Result {
	id, err := parseID(q.UserID)
	if err != nil {
		return failure(err)
	}
	u, err := c.Service.GetUserByID(ctx, id)
	if err != nil {
		return failure(err)
	}
	return Result{Success: true, UserID: u.ID().String(), User: NewUserView(u)}
}
