package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/guan-wang/guans-lala-land/internal/data/dbctx"
	"github.com/guan-wang/guans-lala-land/internal/data/repos"
	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/http/middleware"
	"github.com/guan-wang/guans-lala-land/internal/http/response"
)

const maxListLimit = 100

// RunStarter launches a pipeline run and returns before it completes.
type RunStarter interface {
	Start(ctx context.Context) (uuid.UUID, error)
}

type RunHandler struct {
	starter RunStarter
	runs    repos.LessonRunRepo
}

func NewRunHandler(starter RunStarter, runs repos.LessonRunRepo) *RunHandler {
	return &RunHandler{starter: starter, runs: runs}
}

// RunView is the API shape of a run-history row.
type RunView struct {
	ID           string          `json:"id"`
	LessonID     string          `json:"lesson_id,omitempty"`
	Status       string          `json:"status"`
	Reached      string          `json:"reached,omitempty"`
	FailureStage string          `json:"failure_stage,omitempty"`
	FailureKind  string          `json:"failure_kind,omitempty"`
	Error        string          `json:"error,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Outcome      json.RawMessage `json:"outcome,omitempty"`
	Lesson       json.RawMessage `json:"lesson,omitempty"`
}

func viewOf(run *lesson.LessonRun, full bool) RunView {
	v := RunView{
		ID:           run.ID.String(),
		LessonID:     run.LessonID,
		Status:       run.Status,
		Reached:      run.Reached,
		FailureStage: run.FailureStage,
		FailureKind:  run.FailureKind,
		Error:        run.Error,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}
	if full {
		if len(run.Outcome) > 0 {
			v.Outcome = json.RawMessage(run.Outcome)
		}
		if len(run.Lesson) > 0 {
			v.Lesson = json.RawMessage(run.Lesson)
		}
	}
	return v
}

// POST /api/runs
func (h *RunHandler) StartRun(c *gin.Context) {
	if h.starter == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "runs_disabled", errors.New("run starter not configured"))
		return
	}
	runID, err := h.starter.Start(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "start_run_failed", err)
		return
	}
	c.Set(middleware.KeyRunID, runID.String())
	response.RespondAccepted(c, gin.H{"run_id": runID.String()})
}

// GET /api/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	c.Set(middleware.KeyRunID, runID.String())
	run, err := h.runs.GetByID(dbctx.New(c.Request.Context()), runID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "load_run_failed", err)
		return
	}
	if run == nil {
		response.RespondError(c, http.StatusNotFound, "run_not_found", errors.New("run not found"))
		return
	}
	response.RespondOK(c, gin.H{"run": viewOf(run, true)})
}

// GET /api/runs?limit=N
func (h *RunHandler) ListRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := h.runs.List(dbctx.New(c.Request.Context()), limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_runs_failed", err)
		return
	}
	out := make([]RunView, 0, len(rows))
	for _, r := range rows {
		out = append(out, viewOf(r, false))
	}
	response.RespondOK(c, gin.H{"runs": out})
}
