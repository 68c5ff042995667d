package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/luminhq/user-service/internal/interface/http"
)

// TaskModule exposes task polling for callers holding a 202 task id.
type TaskModule struct {
	Handler *handlers.TaskHandler
}

func NewTaskModule(h *handlers.TaskHandler) *TaskModule {
	return &TaskModule{Handler: h}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	rg.GET("/tasks/:id", m.Handler.Get)
}
