package postgres

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/luminhq/user-service/internal/domain/entity"
)

// UserMapper is the bidirectional transform between the aggregate and its
// flat record. The mapping is a stable bijection: ToDomain(ToRecord(u))
// reproduces u field for field.
type UserMapper struct{}

// ToDomain rebuilds the aggregate from a flat record.
func (UserMapper) ToDomain(rec *UserRecord) (*entity.User, error) {
	id, err := uuid.Parse(rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("map user record: parse user_id: %w", err)
	}

	privacy := entity.PrivacySettings{}
	for _, m := range []struct {
		src VisibilityRecord
		dst *entity.FieldVisibility
	}{
		{rec.AvatarVisibility, &privacy.Avatar},
		{rec.BirthDateVisibility, &privacy.BirthDate},
		{rec.PhoneVisibility, &privacy.Phone},
		{rec.EmailVisibility, &privacy.Email},
	} {
		v, err := toVisibility(m.src)
		if err != nil {
			return nil, err
		}
		*m.dst = v
	}

	views := make([]entity.ProfileView, 0, len(rec.ProfileViews))
	for _, vr := range rec.ProfileViews {
		viewID, err := uuid.Parse(vr.ViewID)
		if err != nil {
			return nil, fmt.Errorf("map user record: parse view_id: %w", err)
		}
		viewerID, err := uuid.Parse(vr.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("map user record: parse viewer_id: %w", err)
		}
		views = append(views, entity.ProfileView{
			ViewID:   viewID,
			ViewerID: viewerID,
			ViewerIP: vr.ViewerIP,
			ViewedAt: vr.ViewedAt,
		})
	}

	return entity.Reconstitute(
		id,
		entity.Username{FirstName: rec.FirstName, LastName: rec.LastName},
		rec.BirthDate,
		rec.Phone,
		rec.Email,
		rec.LanguageCode,
		rec.Bio,
		rec.AvatarURL,
		privacy,
		views,
		entity.Status(rec.Status),
		rec.Version,
		rec.CreatedAt,
		rec.UpdatedAt,
	), nil
}

// ToRecord flattens the aggregate into its persisted/cached shape.
func (UserMapper) ToRecord(u *entity.User) *UserRecord {
	views := make([]ProfileViewRecord, 0, len(u.ProfileViews))
	for _, v := range u.ProfileViews {
		views = append(views, ProfileViewRecord{
			ViewID:   v.ViewID.String(),
			ViewerID: v.ViewerID.String(),
			ViewerIP: v.ViewerIP,
			ViewedAt: v.ViewedAt,
		})
	}
	return &UserRecord{
		UserID:              u.ID().String(),
		FirstName:           u.Username.FirstName,
		LastName:            u.Username.LastName,
		BirthDate:           u.BirthDate,
		Phone:               u.Phone,
		Email:               u.Email,
		LanguageCode:        u.LanguageCode,
		Bio:                 u.Bio,
		AvatarURL:           u.AvatarURL,
		AvatarVisibility:    toVisibilityRecord(u.PrivacySettings.Avatar),
		BirthDateVisibility: toVisibilityRecord(u.PrivacySettings.BirthDate),
		PhoneVisibility:     toVisibilityRecord(u.PrivacySettings.Phone),
		EmailVisibility:     toVisibilityRecord(u.PrivacySettings.Email),
		ProfileViews:        views,
		Status:              string(u.Status),
		Version:             u.Version(),
		CreatedAt:           u.CreatedAt(),
		UpdatedAt:           u.UpdatedAt(),
	}
}

func toVisibility(rec VisibilityRecord) (entity.FieldVisibility, error) {
	black, err := parseIDList(rec.BlackList)
	if err != nil {
		return entity.FieldVisibility{}, err
	}
	white, err := parseIDList(rec.WhiteList)
	if err != nil {
		return entity.FieldVisibility{}, err
	}
	return entity.FieldVisibility{
		ForContacts: rec.ForContacts,
		ForAllUsers: rec.ForAllUsers,
		BlackList:   black,
		WhiteList:   white,
	}, nil
}

func toVisibilityRecord(v entity.FieldVisibility) VisibilityRecord {
	return VisibilityRecord{
		ForContacts: v.ForContacts,
		ForAllUsers: v.ForAllUsers,
		BlackList:   formatIDList(v.BlackList),
		WhiteList:   formatIDList(v.WhiteList),
	}
}

// parseIDList and formatIDList keep nil as nil so the record transform is
// an exact inverse, not merely an equivalent one.
func parseIDList(in []string) ([]uuid.UUID, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("map user record: parse visibility list entry: %w", err)
		}
		out = append(out, id)
	}
	return out, nil
}

func formatIDList(in []uuid.UUID) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, id := range in {
		out = append(out, id.String())
	}
	return out
}
