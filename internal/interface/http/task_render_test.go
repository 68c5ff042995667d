package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminhq/user-service/internal/application"
	"github.com/luminhq/user-service/internal/tasks"
)

func renderState(t *testing.T, st tasks.State) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tasks/t-1", nil)
	RenderTaskState(c, "t-1", st, http.StatusOK)
	return rec
}

func completedState(t *testing.T, res application.Result) tasks.State {
	t.Helper()
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	return tasks.State{Status: tasks.StatusCompleted, Result: raw}
}

func TestRenderCompletedSuccess(t *testing.T) {
	rec := renderState(t, completedState(t, application.Result{Success: true, UserID: "u-1"}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRenderCompletedFailureMapsCodes(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{application.CodeInvalidArgument, http.StatusBadRequest},
		{application.CodeNotFound, http.StatusNotFound},
		{application.CodeConflict, http.StatusConflict},
		{application.CodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := renderState(t, completedState(t, application.Result{Success: false, Code: tc.code, Error: "nope"}))
		assert.Equal(t, tc.want, rec.Code, "code %q", tc.code)
	}
}

func TestRenderPending(t *testing.T) {
	rec := renderState(t, tasks.State{Status: tasks.StatusPending})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRenderWorkerError(t *testing.T) {
	rec := renderState(t, tasks.State{Status: tasks.StatusError, Error: "decode failed"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRenderMalformedResult(t *testing.T) {
	rec := renderState(t, tasks.State{Status: tasks.StatusCompleted, Result: []byte("{oops")})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
