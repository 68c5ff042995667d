package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/luminhq/user-service/internal/interface/http"
	"github.com/luminhq/user-service/internal/interface/middleware"
)

// UserModule registers the user routes under the given RouterGroup
// (usually /api). Writes submit tasks; reads hit the projection or the
// task pipeline directly.
type UserModule struct {
	Handler *handlers.UserHandler
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	writeLimiter := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	viewLimiter := middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/users", writeLimiter, m.Handler.Create)
	rg.GET("/users/search", m.Handler.Search)
	rg.GET("/users/:id", m.Handler.Get)
	rg.DELETE("/users/:id", writeLimiter, m.Handler.Delete)

	user := rg.Group("/users/:id")
	user.Use(writeLimiter)
	{
		user.PUT("/username", m.Handler.ChangeUsername)
		user.PUT("/birth-date", m.Handler.ChangeBirthDate)
		user.PUT("/email", m.Handler.ChangeEmail)
		user.PUT("/phone", m.Handler.ChangePhone)
		user.PUT("/language-code", m.Handler.ChangeLanguageCode)
		user.PUT("/bio", m.Handler.ChangeBio)
		user.PUT("/avatar-url", m.Handler.ChangeAvatarURL)
		user.PUT("/privacy-settings", m.Handler.ChangePrivacySettings)
		user.POST("/avatar", m.Handler.UploadAvatar)
		user.POST("/block", m.Handler.Block)
		user.POST("/activate", m.Handler.Activate)
		user.POST("/deactivate", m.Handler.Deactivate)
	}

	rg.POST("/users/:id/views", viewLimiter, m.Handler.RecordProfileView)
}
