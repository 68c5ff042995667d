package event

// Event type tags for the user aggregate. The outbound subject for each is
// "users.events.<type>".
const (
	TypeUserCreated                = "UserCreatedEvent"
	TypeUserChangedUsername        = "UserChangedUsernameEvent"
	TypeUserChangedBirthDate       = "UserChangedBirthDateEvent"
	TypeUserChangedEmail           = "UserChangedEmailEvent"
	TypeUserChangedPhone           = "UserChangedPhoneEvent"
	TypeUserChangedLanguageCode    = "UserChangedLanguageCodeEvent"
	TypeUserChangedBio             = "UserChangedBioEvent"
	TypeUserChangedAvatarURL       = "UserChangedAvatarURLEvent"
	TypeUserChangedPrivacySettings = "UserChangedPrivacySettingsEvent"
	TypeUserRecordedProfileView    = "UserRecordedProfileViewEvent"
	TypeUserBlocked                = "UserBlockedEvent"
	TypeUserActivated              = "UserActivatedEvent"
	TypeUserDeactivated            = "UserDeactivatedEvent"
)

// TypeUserDeleted is published by the delete use case rather than recorded
// on the aggregate: the instance is gone once the row is removed, so there
// is no event log left to drain.
const TypeUserDeleted = "UserDeletedEvent"
