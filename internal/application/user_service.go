package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/internal/domain/entity"
	repo "github.com/luminhq/user-service/internal/domain/repository"
)

// Service orchestrates one unit-of-work scope per use case: load the
// aggregate, invoke one mutating method, persist, commit. Event publication
// happens after the service returns, in the command handler.
type Service struct {
	UoW    repo.UnitOfWorkFactory
	Logger *logrus.Logger
}

func NewService(uow repo.UnitOfWorkFactory, logger *logrus.Logger) *Service {
	return &Service{UoW: uow, Logger: logger}
}

// CreateUserInput carries the initial profile for a new aggregate.
type CreateUserInput struct {
	ID           uuid.UUID
	Username     entity.Username
	BirthDate    *time.Time
	Phone        string
	Email        *string
	LanguageCode string
	Bio          *string
	AvatarURL    string
	Privacy      *entity.PrivacySettings
}

// CreateUser builds a fresh aggregate, records the created event and
// persists it. ErrUserAlreadyExists for a duplicate identifier.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	uow, err := s.UoW.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Close()

	if _, err := uow.Users().GetByID(ctx, in.ID); err == nil {
		return nil, repo.ErrUserAlreadyExists
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		return nil, err
	}

	privacy := entity.DefaultPrivacySettings()
	if in.Privacy != nil {
		privacy = *in.Privacy
	}
	u := entity.NewUser(
		in.ID, in.Username, in.BirthDate, in.Phone, in.Email,
		in.LanguageCode, in.Bio, in.AvatarURL, privacy, nil, entity.StatusActive,
	)
	u.RecordCreated()

	if err := uow.Users().Save(ctx, u); err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	s.Logger.WithField("user_id", u.ID()).Info("user created")
	return u, nil
}

// mutate runs one aggregate method inside a fresh unit-of-work scope.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*entity.User)) (*entity.User, error) {
	uow, err := s.UoW.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Close()

	u, err := uow.Users().GetByID(ctx, id)
	if err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}
	fn(u)
	if err := uow.Users().Save(ctx, u); err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}
	return u, uow.Commit(ctx)
}

func (s *Service) ChangeUsername(ctx context.Context, id uuid.UUID, newUsername entity.Username) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.ChangeUsername(newUsername) })
}

func (s *Service) ChangeBirthDate(ctx context.Context, id uuid.UUID, newBirthDate *time.Time) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.ChangeBirthDate(newBirthDate) })
}

func (s *Service) ChangeEmail(ctx context.Context, id uuid.UUID, newEmail *string) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.ChangeEmail(newEmail) })
}

func (s *Service) ChangePhone(ctx context.Context, id uuid.UUID, newPhone string) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.ChangePhone(newPhone) })
}

func (s *Service) ChangeLanguageCode(ctx context.Context, id uuid.UUID, newLanguageCode string) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.ChangeLanguageCode(newLanguageCode) })
}

func (s *Service) ChangeBio(ctx context.Context, id uuid.UUID, newBio *string) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.ChangeBio(newBio) })
}

func (s *Service) ChangeAvatarURL(ctx context.Context, id uuid.UUID, newAvatarURL string) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.ChangeAvatarURL(newAvatarURL) })
}

func (s *Service) ChangePrivacySettings(ctx context.Context, id uuid.UUID, newSettings entity.PrivacySettings) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.ChangePrivacySettings(newSettings) })
}

func (s *Service) RecordProfileView(ctx context.Context, id, viewerID uuid.UUID, viewerIP string) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.RecordProfileView(uuid.New(), viewerID, viewerIP) })
}

func (s *Service) Block(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.Block() })
}

func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.Activate() })
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User) { u.Deactivate() })
}

// GetUserByID loads the aggregate without mutating it.
func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	uow, err := s.UoW.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Close()
	return uow.Users().GetByID(ctx, id)
}

// Delete removes the aggregate from the store and both cache tiers.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	uow, err := s.UoW.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Close()
	if err := uow.Users().Delete(ctx, id); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}
	return uow.Commit(ctx)
}
