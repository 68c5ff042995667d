package application

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luminhq/user-service/internal/domain/entity"
)

// VisibilityPayload is the wire form of one field's visibility rule.
type VisibilityPayload struct {
	ForContacts bool     `json:"for_contacts"`
	ForAllUsers bool     `json:"for_all_users"`
	BlackList   []string `json:"black_list"`
	WhiteList   []string `json:"white_list"`
}

// PrivacyPayload is the wire form of the aggregate's privacy settings.
type PrivacyPayload struct {
	Avatar    VisibilityPayload `json:"avatar"`
	BirthDate VisibilityPayload `json:"birth_date"`
	Phone     VisibilityPayload `json:"phone"`
	Email     VisibilityPayload `json:"email"`
}

// ToDomain parses the payload into domain privacy settings.
func (p PrivacyPayload) ToDomain() (entity.PrivacySettings, error) {
	out := entity.PrivacySettings{}
	for _, m := range []struct {
		src VisibilityPayload
		dst *entity.FieldVisibility
	}{
		{p.Avatar, &out.Avatar},
		{p.BirthDate, &out.BirthDate},
		{p.Phone, &out.Phone},
		{p.Email, &out.Email},
	} {
		v, err := m.src.toDomain()
		if err != nil {
			return entity.PrivacySettings{}, err
		}
		*m.dst = v
	}
	return out, nil
}

func (p VisibilityPayload) toDomain() (entity.FieldVisibility, error) {
	parse := func(in []string) ([]uuid.UUID, error) {
		out := make([]uuid.UUID, 0, len(in))
		for _, s := range in {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("%w: parse visibility list entry %q: %v", ErrInvalidArgument, s, err)
			}
			out = append(out, id)
		}
		return out, nil
	}
	black, err := parse(p.BlackList)
	if err != nil {
		return entity.FieldVisibility{}, err
	}
	white, err := parse(p.WhiteList)
	if err != nil {
		return entity.FieldVisibility{}, err
	}
	return entity.FieldVisibility{
		ForContacts: p.ForContacts,
		ForAllUsers: p.ForAllUsers,
		BlackList:   black,
		WhiteList:   white,
	}, nil
}

// PrivacyPayloadFrom flattens domain privacy settings into the wire form.
func PrivacyPayloadFrom(ps entity.PrivacySettings) PrivacyPayload {
	conv := func(v entity.FieldVisibility) VisibilityPayload {
		format := func(ids []uuid.UUID) []string {
			out := make([]string, 0, len(ids))
			for _, id := range ids {
				out = append(out, id.String())
			}
			return out
		}
		return VisibilityPayload{
			ForContacts: v.ForContacts,
			ForAllUsers: v.ForAllUsers,
			BlackList:   format(v.BlackList),
			WhiteList:   format(v.WhiteList),
		}
	}
	return PrivacyPayload{
		Avatar:    conv(ps.Avatar),
		BirthDate: conv(ps.BirthDate),
		Phone:     conv(ps.Phone),
		Email:     conv(ps.Email),
	}
}

// ProfileViewPayload is the wire form of one profile view record.
type ProfileViewPayload struct {
	ViewID   string    `json:"view_id"`
	ViewerID string    `json:"viewer_id"`
	ViewerIP string    `json:"viewer_ip"`
	ViewedAt time.Time `json:"viewed_at"`
}

// UserView is the read model returned by queries and task results.
type UserView struct {
	UserID       string               `json:"user_id"`
	FirstName    string               `json:"first_name"`
	LastName     string               `json:"last_name"`
	BirthDate    *string              `json:"birth_date"`
	Phone        string               `json:"phone"`
	Email        *string              `json:"email"`
	LanguageCode string               `json:"language_code"`
	Bio          *string              `json:"bio"`
	AvatarURL    string               `json:"avatar_url"`
	Privacy      PrivacyPayload       `json:"privacy_settings"`
	ProfileViews []ProfileViewPayload `json:"profile_views"`
	Status       string               `json:"status"`
	Version      int                  `json:"version"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// NewUserView flattens the aggregate for responses.
func NewUserView(u *entity.User) *UserView {
	var birth *string
	if u.BirthDate != nil {
		s := u.BirthDate.Format(time.RFC3339)
		birth = &s
	}
	views := make([]ProfileViewPayload, 0, len(u.ProfileViews))
	for _, v := range u.ProfileViews {
		views = append(views, ProfileViewPayload{
			ViewID:   v.ViewID.String(),
			ViewerID: v.ViewerID.String(),
			ViewerIP: v.ViewerIP,
			ViewedAt: v.ViewedAt,
		})
	}
	return &UserView{
		UserID:       u.ID().String(),
		FirstName:    u.Username.FirstName,
		LastName:     u.Username.LastName,
		BirthDate:    birth,
		Phone:        u.Phone,
		Email:        u.Email,
		LanguageCode: u.LanguageCode,
		Bio:          u.Bio,
		AvatarURL:    u.AvatarURL,
		Privacy:      PrivacyPayloadFrom(u.PrivacySettings),
		ProfileViews: views,
		Status:       string(u.Status),
		Version:      u.Version(),
		CreatedAt:    u.CreatedAt(),
		UpdatedAt:    u.UpdatedAt(),
	}
}
