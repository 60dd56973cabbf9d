package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/guan-wang/guans-lala-land/internal/data/dbctx"
	"github.com/guan-wang/guans-lala-land/internal/data/repos"
	"github.com/guan-wang/guans-lala-land/internal/data/repos/testutil"
	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	httpH "github.com/guan-wang/guans-lala-land/internal/http/handlers"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

type stubStarter struct {
	id  uuid.UUID
	err error
}

func (s stubStarter) Start(context.Context) (uuid.UUID, error) { return s.id, s.err }

func newTestRouter(t *testing.T, starter httpH.RunStarter) (*gin.Engine, repos.Repos) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := repos.New(testutil.DB(t), testutil.Logger(t))
	engine := NewRouter(RouterConfig{
		Log:           logger.Nop(),
		RunHandler:    httpH.NewRunHandler(starter, r.LessonRuns),
		HealthHandler: httpH.NewHealthHandler(nil),
	})
	return engine, r
}

func do(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthcheck(t *testing.T) {
	engine, _ := newTestRouter(t, nil)
	rec := do(engine, http.MethodGet, "/healthcheck")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthcheckReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := NewRouter(RouterConfig{HealthHandler: httpH.NewHealthHandler(map[string]httpH.Pinger{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})})
	rec := do(engine, http.MethodGet, "/healthcheck")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestStartRun(t *testing.T) {
	id := uuid.New()
	engine, _ := newTestRouter(t, stubStarter{id: id})

	rec := do(engine, http.MethodPost, "/api/runs")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, id.String(), body["run_id"])
}

func TestStartRunError(t *testing.T) {
	engine, _ := newTestRouter(t, stubStarter{err: errors.New("temporal down")})
	rec := do(engine, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "start_run_failed")
}

func TestStartRunDisabled(t *testing.T) {
	engine, _ := newTestRouter(t, nil)
	rec := do(engine, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetAndListRuns(t *testing.T) {
	engine, r := newTestRouter(t, nil)
	dbc := dbctx.New(context.Background())

	fin := time.Now().UTC()
	run := &lesson.LessonRun{
		ID:         uuid.New(),
		LessonID:   "lesson_20250101_120000",
		Status:     string(lesson.RunStatusPartial),
		Reached:    string(lesson.StageHandoff),
		StartedAt:  fin.Add(-time.Minute),
		FinishedAt: &fin,
		Outcome:    datatypes.JSON([]byte(`{"status":"partial"}`)),
	}
	require.NoError(t, r.LessonRuns.Create(dbc, run))

	rec := do(engine, http.MethodGet, "/api/runs/"+run.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Run httpH.RunView `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "lesson_20250101_120000", got.Run.LessonID)
	assert.JSONEq(t, `{"status":"partial"}`, string(got.Run.Outcome))

	rec = do(engine, http.MethodGet, "/api/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Runs []httpH.RunView `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Empty(t, list.Runs[0].Outcome)
}

func TestGetRunErrors(t *testing.T) {
	engine, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodGet, "/api/runs/not-a-uuid").Code)
	assert.Equal(t, http.StatusNotFound, do(engine, http.MethodGet, "/api/runs/"+uuid.NewString()).Code)
	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodGet, "/api/runs?limit=-1").Code)
}
