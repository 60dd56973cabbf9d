package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/compose"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/digest"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/gate"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/persist"
)

type StageStatus string

const (
	StageOK       StageStatus = "ok"
	StageDegraded StageStatus = "degraded"
	StageFailed   StageStatus = "failed"
	StageSkipped  StageStatus = "skipped"
)

type StageReport struct {
	Stage      lesson.Stage `json:"stage"`
	Status     StageStatus  `json:"status"`
	Message    string       `json:"message,omitempty"`
	DurationMS int64        `json:"duration_ms"`
}

type Failure struct {
	Stage   lesson.Stage `json:"stage"`
	Kind    lesson.Kind  `json:"kind"`
	Message string       `json:"message"`
}

// Outcome is the terminal result of one run: how far it got and the first
// hard failure, if any.
type Outcome struct {
	RunID               string               `json:"run_id"`
	LessonID            string               `json:"lesson_id,omitempty"`
	Status              lesson.RunStatus     `json:"status"`
	Reached             lesson.Stage         `json:"reached,omitempty"`
	Stages              []StageReport        `json:"stages"`
	FirstFailure        *Failure             `json:"first_failure,omitempty"`
	PersistConfirmation string               `json:"persist_confirmation,omitempty"`
	Gate                *gate.Result         `json:"gate,omitempty"`
	Email               *digest.EmailOutcome `json:"email,omitempty"`
	StartedAt           time.Time            `json:"started_at"`
	FinishedAt          time.Time            `json:"finished_at"`

	Lesson *lesson.Lesson `json:"-"`
}

// Tracker accumulates stage reports into an Outcome. It performs no I/O and
// reads no clock, so it is safe inside a Temporal workflow.
type Tracker struct {
	o        Outcome
	composed bool
}

func NewTracker(runID string, startedAt time.Time) *Tracker {
	return &Tracker{o: Outcome{RunID: runID, StartedAt: startedAt, Stages: []StageReport{}}}
}

func (t *Tracker) Composed(l lesson.Lesson) {
	t.composed = true
	t.o.LessonID = l.LessonID
	lc := l
	t.o.Lesson = &lc
}

// Record appends a stage report and advances Reached.
func (t *Tracker) Record(stage lesson.Stage, status StageStatus, msg string, d time.Duration) {
	t.o.Stages = append(t.o.Stages, StageReport{Stage: stage, Status: status, Message: msg, DurationMS: d.Milliseconds()})
	if status != StageSkipped {
		t.o.Reached = stage
	}
}

// Fail records a stage failure; only the first one is kept as FirstFailure.
func (t *Tracker) Fail(stage lesson.Stage, kind lesson.Kind, msg string, d time.Duration) {
	t.Record(stage, StageFailed, msg, d)
	if t.o.FirstFailure == nil {
		t.o.FirstFailure = &Failure{Stage: stage, Kind: kind, Message: msg}
	}
}

func (t *Tracker) Skip(stage lesson.Stage, reason string) {
	t.Record(stage, StageSkipped, reason, 0)
}

func (t *Tracker) SetPersistConfirmation(s string) { t.o.PersistConfirmation = s }

func (t *Tracker) SetGate(r gate.Result) {
	rc := r
	t.o.Gate = &rc
}

func (t *Tracker) SetEmail(e digest.EmailOutcome) {
	ec := e
	t.o.Email = &ec
}

// ComposeFailed records a compose failure; nothing downstream can run.
func (t *Tracker) ComposeFailed(kind lesson.Kind, msg string, d time.Duration) {
	t.Fail(lesson.StageCompose, kind, msg, d)
	t.Skip(lesson.StagePersist, "no lesson")
	t.Skip(lesson.StageHandoff, "no lesson")
	t.Skip(lesson.StageDeliver, "no lesson")
}

// ComposeDone records the composed lesson; placeholder use marks the stage degraded.
func (t *Tracker) ComposeDone(l lesson.Lesson, rep compose.Report, d time.Duration) {
	t.Composed(l)
	if rep.Degenerate() {
		t.Record(lesson.StageCompose, StageDegraded, fmt.Sprintf("%s: %s", lesson.KindGenerationDegenerate, strings.Join(rep.Warnings, "; ")), d)
		return
	}
	t.Record(lesson.StageCompose, StageOK, "", d)
}

// PersistDone records the persistence stage. A non-empty errMsg is a stage
// failure; item insert failures alone only degrade it.
func (t *Tracker) PersistDone(res persist.Result, kind lesson.Kind, errMsg string, d time.Duration) {
	if errMsg != "" {
		t.Fail(lesson.StagePersist, kind, errMsg, d)
		return
	}
	t.SetPersistConfirmation(res.Confirmation)
	if res.Failed > 0 {
		t.Record(lesson.StagePersist, StageDegraded, fmt.Sprintf("%s: %d of %d", lesson.KindItemInsertFailed, res.Failed, res.Selected), d)
		return
	}
	t.Record(lesson.StagePersist, StageOK, res.Confirmation, d)
}

// HandoffDone records the gate decision and reports whether delivery may run.
func (t *Tracker) HandoffDone(verdict gate.Result, errMsg string, d time.Duration) bool {
	t.SetGate(verdict)
	if errMsg == "" && verdict.Proceed {
		t.Record(lesson.StageHandoff, StageOK, "", d)
		return true
	}
	if errMsg == "" {
		errMsg = verdict.Message()
	}
	t.Fail(lesson.StageHandoff, lesson.KindHandoffValidationFailed, errMsg, d)
	t.Skip(lesson.StageDeliver, "handoff rejected")
	return false
}

func (t *Tracker) DeliverDone(email digest.EmailOutcome, canceled bool, d time.Duration) {
	t.SetEmail(email)
	if email.OK() {
		t.Record(lesson.StageDeliver, StageOK, email.Message, d)
		return
	}
	kind := lesson.KindTransportFailed
	if canceled {
		kind = lesson.KindCanceled
	}
	t.Fail(lesson.StageDeliver, kind, email.Message, d)
}

// Canceled fails the first stage and skips the rest.
func (t *Tracker) Canceled(msg string, stages ...lesson.Stage) {
	for i, s := range stages {
		if i == 0 {
			t.Fail(s, lesson.KindCanceled, msg, 0)
			continue
		}
		t.Skip(s, "canceled")
	}
}

// Finish derives the run status: failed when no lesson was produced, partial
// when a later stage failed, succeeded otherwise.
func (t *Tracker) Finish(finishedAt time.Time) Outcome {
	o := t.o
	o.FinishedAt = finishedAt
	switch {
	case !t.composed:
		o.Status = lesson.RunStatusFailed
	case o.FirstFailure != nil:
		o.Status = lesson.RunStatusPartial
	default:
		o.Status = lesson.RunStatusSucceeded
	}
	o.Stages = append([]StageReport(nil), t.o.Stages...)
	return o
}
