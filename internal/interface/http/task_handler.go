package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luminhq/user-service/internal/tasks"
	"github.com/luminhq/user-service/pkg/response"
)

// TaskHandler exposes task states for callers that got a 202 and are
// polling for the outcome.
type TaskHandler struct {
	Backend *tasks.ResultBackend
}

func NewTaskHandler(backend *tasks.ResultBackend) *TaskHandler {
	return &TaskHandler{Backend: backend}
}

func (h *TaskHandler) Get(c *gin.Context) {
	taskID := c.Param("id")
	st, ok := h.Backend.Get(c.Request.Context(), taskID)
	if !ok {
		response.Error[any](c, http.StatusNotFound, "unknown task", nil)
		return
	}
	RenderTaskState(c, taskID, st, http.StatusOK)
}
