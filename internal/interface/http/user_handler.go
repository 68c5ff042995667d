package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/internal/application"
	"github.com/luminhq/user-service/internal/search"
	"github.com/luminhq/user-service/internal/tasks"
	"github.com/luminhq/user-service/pkg/helpers"
	"github.com/luminhq/user-service/pkg/response"
	"github.com/luminhq/user-service/pkg/validation"
)

// UserHandler submits one task per request and waits briefly for its
// result. A slow task turns into 202 with the task id; the caller polls
// GET /tasks/:id for the outcome.
type UserHandler struct {
	Tasks       *tasks.Client
	Searcher    *search.Searcher
	GCS         *storage.Client
	GCSBucket   string
	WaitTimeout time.Duration
	Logger      *logrus.Logger
}

func NewUserHandler(tc *tasks.Client, searcher *search.Searcher, gcs *storage.Client, gcsBucket string, waitTimeout time.Duration, logger *logrus.Logger) *UserHandler {
	if waitTimeout <= 0 {
		waitTimeout = 5 * time.Second
	}
	return &UserHandler{Tasks: tc, Searcher: searcher, GCS: gcs, GCSBucket: gcsBucket, WaitTimeout: waitTimeout, Logger: logger}
}

type createUserRequest struct {
	UserID       string                      `json:"user_id" binding:"omitempty,uuid"`
	FirstName    string                      `json:"first_name" binding:"required"`
	LastName     string                      `json:"last_name" binding:"required"`
	BirthDate    *string                     `json:"birth_date"`
	Phone        string                      `json:"phone" binding:"omitempty,e164"`
	Email        *string                     `json:"email" binding:"omitempty,email"`
	LanguageCode string                      `json:"language_code"`
	Bio          *string                     `json:"bio"`
	AvatarURL    string                      `json:"avatar_url" binding:"omitempty,url"`
	Privacy      *application.PrivacyPayload `json:"privacy_settings"`
}

type changeUsernameRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type changeBirthDateRequest struct {
	NewBirthDate *string `json:"new_birth_date"`
}

type changeEmailRequest struct {
	NewEmail *string `json:"new_email" binding:"omitempty,email"`
}

type changePhoneRequest struct {
	NewPhone string `json:"new_phone" binding:"required,e164"`
}

type changeLanguageCodeRequest struct {
	NewLanguageCode string `json:"new_language_code" binding:"required"`
}

type changeBioRequest struct {
	NewBio *string `json:"new_bio"`
}

type changeAvatarURLRequest struct {
	NewAvatarURL string `json:"new_avatar_url" binding:"required,url"`
}

type recordProfileViewRequest struct {
	ViewerID string `json:"viewer_id" binding:"required,uuid"`
}

// run submits the named task and waits for its result up to WaitTimeout.
func (h *UserHandler) run(c *gin.Context, name string, payload any, successStatus int) {
	ctx := c.Request.Context()
	taskID, err := h.Tasks.Submit(ctx, name, payload)
	if err != nil {
		h.Logger.WithError(err).WithField("task", name).Error("task submission failed")
		response.Error[any](c, http.StatusBadGateway, "task submission failed", nil)
		return
	}
	st, err := h.Tasks.WaitResult(ctx, taskID, h.WaitTimeout)
	if errors.Is(err, tasks.ErrWaitTimeout) {
		response.Success(c, http.StatusAccepted, gin.H{"task_id": taskID, "status": tasks.StatusPending}, "task accepted", nil)
		return
	}
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "waiting for task result failed", err.Error())
		return
	}
	RenderTaskState(c, taskID, st, successStatus)
}

// RenderTaskState maps a finished task state onto an HTTP response.
func RenderTaskState(c *gin.Context, taskID string, st tasks.State, successStatus int) {
	switch st.Status {
	case tasks.StatusError:
		response.Error[any](c, http.StatusInternalServerError, "task failed", st.Error)
	case tasks.StatusCompleted:
		var res application.Result
		if err := json.Unmarshal(st.Result, &res); err != nil {
			response.Error[any](c, http.StatusInternalServerError, "malformed task result", nil)
			return
		}
		if !res.Success {
			response.Error[any](c, statusForCode(res.Code), res.Error, nil)
			return
		}
		response.Success(c, successStatus, res, "ok", gin.H{"task_id": taskID})
	default:
		response.Success(c, http.StatusAccepted, gin.H{"task_id": taskID, "status": st.Status}, "task pending", nil)
	}
}

func statusForCode(code string) int {
	switch code {
	case application.CodeInvalidArgument:
		return http.StatusBadRequest
	case application.CodeNotFound:
		return http.StatusNotFound
	case application.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.UserID == "" {
		req.UserID = uuid.NewString()
	}
	h.run(c, tasks.TaskCreateUser, application.CreateUserCommand{
		UserID:       req.UserID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDate:    req.BirthDate,
		Phone:        req.Phone,
		Email:        req.Email,
		LanguageCode: req.LanguageCode,
		Bio:          req.Bio,
		AvatarURL:    req.AvatarURL,
		Privacy:      req.Privacy,
	}, http.StatusCreated)
}

func (h *UserHandler) Get(c *gin.Context) {
	h.run(c, tasks.TaskGetUserByID, application.GetUserByIDQuery{UserID: c.Param("id")}, http.StatusOK)
}

func (h *UserHandler) ChangeUsername(c *gin.Context) {
	var req changeUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	h.run(c, tasks.TaskChangeUsername, application.ChangeUsernameCommand{
		UserID: c.Param("id"), FirstName: req.FirstName, LastName: req.LastName,
	}, http.StatusOK)
}

func (h *UserHandler) ChangeBirthDate(c *gin.Context) {
	var req changeBirthDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	h.run(c, tasks.TaskChangeBirthDate, application.ChangeBirthDateCommand{
		UserID: c.Param("id"), NewBirthDate: req.NewBirthDate,
	}, http.StatusOK)
}

func (h *UserHandler) ChangeEmail(c *gin.Context) {
	var req changeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	h.run(c, tasks.TaskChangeEmail, application.ChangeEmailCommand{
		UserID: c.Param("id"), NewEmail: req.NewEmail,
	}, http.StatusOK)
}

func (h *UserHandler) ChangePhone(c *gin.Context) {
	var req changePhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	h.run(c, tasks.TaskChangePhone, application.ChangePhoneCommand{
		UserID: c.Param("id"), NewPhone: req.NewPhone,
	}, http.StatusOK)
}

func (h *UserHandler) ChangeLanguageCode(c *gin.Context) {
	var req changeLanguageCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	h.run(c, tasks.TaskChangeLanguageCode, application.ChangeLanguageCodeCommand{
		UserID: c.Param("id"), NewLanguageCode: req.NewLanguageCode,
	}, http.StatusOK)
}

func (h *UserHandler) ChangeBio(c *gin.Context) {
	var req changeBioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	h.run(c, tasks.TaskChangeBio, application.ChangeBioCommand{
		UserID: c.Param("id"), NewBio: req.NewBio,
	}, http.StatusOK)
}

func (h *UserHandler) ChangeAvatarURL(c *gin.Context) {
	var req changeAvatarURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	h.run(c, tasks.TaskChangeAvatarURL, application.ChangeAvatarURLCommand{
		UserID: c.Param("id"), NewAvatarURL: req.NewAvatarURL,
	}, http.StatusOK)
}

func (h *UserHandler) ChangePrivacySettings(c *gin.Context) {
	var req application.PrivacyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	h.run(c, tasks.TaskChangePrivacySettings, application.ChangePrivacySettingsCommand{
		UserID: c.Param("id"), NewSettings: req,
	}, http.StatusOK)
}

func (h *UserHandler) RecordProfileView(c *gin.Context) {
	var req recordProfileViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	h.run(c, tasks.TaskRecordProfileView, application.RecordProfileViewCommand{
		UserID: c.Param("id"), ViewerID: req.ViewerID, ViewerIP: c.ClientIP(),
	}, http.StatusOK)
}

func (h *UserHandler) Block(c *gin.Context) {
	h.run(c, tasks.TaskBlockUser, application.BlockUserCommand{UserID: c.Param("id")}, http.StatusOK)
}

func (h *UserHandler) Activate(c *gin.Context) {
	h.run(c, tasks.TaskActivateUser, application.ActivateUserCommand{UserID: c.Param("id")}, http.StatusOK)
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	h.run(c, tasks.TaskDeactivateUser, application.DeactivateUserCommand{UserID: c.Param("id")}, http.StatusOK)
}

func (h *UserHandler) Delete(c *gin.Context) {
	h.run(c, tasks.TaskDeleteUser, application.DeleteUserCommand{UserID: c.Param("id")}, http.StatusOK)
}

// Search queries the Elasticsearch projection directly; reads do not go
// through the task queue.
func (h *UserHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Searcher.Search(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Warn("user search failed")
		response.Error[any](c, http.StatusBadGateway, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

// UploadAvatar stores the image in GCS, then submits the avatar change as
// a regular task so the write path stays uniform.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	if h.GCS == nil || h.GCSBucket == "" {
		response.Error[any](c, http.StatusServiceUnavailable, "avatar storage not configured", nil)
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing file", nil)
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error[any](c, http.StatusBadRequest, "file must be an image", nil)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", c.Param("id"), uuid.NewString()+ext))
	url, err := helpers.UploadObject(c.Request.Context(), h.GCS, h.GCSBucket, objectPath, contentType, file)
	if err != nil {
		h.Logger.WithError(err).Error("avatar upload failed")
		response.Error[any](c, http.StatusBadGateway, "avatar upload failed", nil)
		return
	}
	h.run(c, tasks.TaskChangeAvatarURL, application.ChangeAvatarURLCommand{
		UserID: c.Param("id"), NewAvatarURL: url,
	}, http.StatusOK)
}
