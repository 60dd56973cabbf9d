package lessonrun

import (
	"time"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/compose"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/gate"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/persist"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/pipeline"
)

const (
	WorkflowName = "lesson_run"

	ActivityStart   = "lesson_run_start"
	ActivityCompose = "lesson_run_compose"
	ActivityPersist = "lesson_run_persist"
	ActivityHandoff = "lesson_run_handoff"
	ActivityDeliver = "lesson_run_deliver"
	ActivityFinish  = "lesson_run_finish"
)

// WorkflowID is the Temporal workflow id for a run.
func WorkflowID(runID string) string {
	return "lesson-run-" + runID
}

type Input struct {
	RunID string `json:"run_id"`
}

type StartInput struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
}

// StageFault is a stage failure carried as data so the workflow can record it
// and continue.
type StageFault struct {
	Kind    lesson.Kind `json:"kind"`
	Message string      `json:"message"`
}

type ComposeResult struct {
	Lesson lesson.Lesson  `json:"lesson"`
	Report compose.Report `json:"report"`
	Fault  *StageFault    `json:"fault,omitempty"`
}

type PersistResult struct {
	Result persist.Result `json:"result"`
	Fault  *StageFault    `json:"fault,omitempty"`
}

type HandoffResult struct {
	Handoff pipeline.Handoff `json:"handoff"`
	Gate    gate.Result      `json:"gate"`
	Fault   *StageFault      `json:"fault,omitempty"`
}

type FinishInput struct {
	Outcome pipeline.Outcome `json:"outcome"`
	Lesson  *lesson.Lesson   `json:"lesson,omitempty"`
}

func fault(err error, def lesson.Kind) *StageFault {
	if err == nil {
		return nil
	}
	kind := lesson.KindOf(err)
	if kind == "" {
		kind = def
	}
	return &StageFault{Kind: kind, Message: err.Error()}
}
