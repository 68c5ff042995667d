package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/luminhq/user-service/internal/application"
)

// Task names. One task per use case; the API submits by name and the
// worker dispatches by name.
const (
	TaskCreateUser            = "users.create"
	TaskChangeUsername        = "users.change_username"
	TaskChangeBirthDate       = "users.change_birth_date"
	TaskChangeEmail           = "users.change_email"
	TaskChangePhone           = "users.change_phone"
	TaskChangeLanguageCode    = "users.change_language_code"
	TaskChangeBio             = "users.change_bio"
	TaskChangeAvatarURL       = "users.change_avatar_url"
	TaskChangePrivacySettings = "users.change_privacy_settings"
	TaskRecordProfileView     = "users.record_profile_view"
	TaskBlockUser             = "users.block"
	TaskActivateUser          = "users.activate"
	TaskDeactivateUser        = "users.deactivate"
	TaskDeleteUser            = "users.delete"
	TaskGetUserByID           = "users.get_by_id"
)

// RegisterAll binds every use case to its task name on the worker.
func RegisterAll(w *Worker, cmds *application.Commands) {
	register(w, TaskCreateUser, cmds.CreateUser)
	register(w, TaskChangeUsername, cmds.ChangeUsername)
	register(w, TaskChangeBirthDate, cmds.ChangeBirthDate)
	register(w, TaskChangeEmail, cmds.ChangeEmail)
	register(w, TaskChangePhone, cmds.ChangePhone)
	register(w, TaskChangeLanguageCode, cmds.ChangeLanguageCode)
	register(w, TaskChangeBio, cmds.ChangeBio)
	register(w, TaskChangeAvatarURL, cmds.ChangeAvatarURL)
	register(w, TaskChangePrivacySettings, cmds.ChangePrivacySettings)
	register(w, TaskRecordProfileView, cmds.RecordProfileView)
	register(w, TaskBlockUser, cmds.BlockUser)
	register(w, TaskActivateUser, cmds.ActivateUser)
	register(w, TaskDeactivateUser, cmds.DeactivateUser)
	register(w, TaskDeleteUser, cmds.DeleteUser)
	register(w, TaskGetUserByID, cmds.GetUserByID)
}

func register[C any](w *Worker, name string, fn func(context.Context, C) application.Result) {
	w.Register(name, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var cmd C
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", name, err)
		}
		return fn(ctx, cmd), nil
	})
}
