package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/compose"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/digest"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/gate"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/persist"
	"github.com/guan-wang/guans-lala-land/internal/observability"
	"github.com/guan-wang/guans-lala-land/internal/platform/ctxutil"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

const RootSpanName = "Korean Learning Orchestrator"

// Composer, Persister and Sender are the three stage collaborators.
type Composer interface {
	Compose(ctx context.Context) (lesson.Lesson, compose.Report, error)
}

type Persister interface {
	PersistResult(ctx context.Context, l lesson.Lesson) (persist.Result, error)
}

type Sender interface {
	Send(ctx context.Context, d digest.Digest) digest.EmailOutcome
}

// RunRecorder persists run history. Optional.
type RunRecorder interface {
	Create(ctx context.Context, run *lesson.LessonRun) error
	Update(ctx context.Context, run *lesson.LessonRun) error
}

// Handoff is the explicit value transferred from the orchestrator to the
// digest stage: the lesson and its serialized form.
type Handoff struct {
	Lesson  lesson.Lesson `json:"lesson"`
	Payload string        `json:"payload"`
}

func NewHandoff(l lesson.Lesson) (Handoff, error) {
	b, err := l.Marshal()
	if err != nil {
		return Handoff{}, fmt.Errorf("serialize handoff: %w", err)
	}
	return Handoff{Lesson: l, Payload: string(b)}, nil
}

type Pipeline struct {
	log      *logger.Logger
	composer Composer
	persist  Persister
	sender   Sender
	recorder RunRecorder
	encode   func(lesson.Lesson) (Handoff, error)
	now      func() time.Time
}

func New(log *logger.Logger, c Composer, p Persister, s Sender, recorder RunRecorder) *Pipeline {
	return &Pipeline{
		log:      log.With("service", "Orchestrator"),
		composer: c,
		persist:  p,
		sender:   s,
		recorder: recorder,
		encode:   NewHandoff,
		now:      time.Now,
	}
}

// WithHandoffEncoder replaces the handoff serialization.
func (p *Pipeline) WithHandoffEncoder(encode func(lesson.Lesson) (Handoff, error)) *Pipeline {
	clone := *p
	clone.encode = encode
	return &clone
}

// Run executes compose, persist, handoff+gate and deliver in sequence.
func (p *Pipeline) Run(ctx context.Context) Outcome {
	return p.RunWithID(ctx, uuid.New())
}

func (p *Pipeline) RunWithID(ctx context.Context, runID uuid.UUID) Outcome {
	rd := &ctxutil.RunData{RunID: runID.String()}
	ctx = ctxutil.WithRunData(ctx, rd)
	ctx, root := observability.StartSpan(ctx, RootSpanName, attribute.String("run_id", rd.RunID))
	defer root.End()

	started := p.now()
	tr := NewTracker(rd.RunID, started)
	p.recordStart(ctx, runID, started)

	log := p.log.With("run_id", rd.RunID)
	log.Info("run started")

	out := p.run(ctx, tr, rd)
	out.FinishedAt = p.now()

	root.SetAttributes(
		attribute.String("lesson_id", out.LessonID),
		attribute.String("status", string(out.Status)),
	)
	p.recordFinish(ctx, runID, out)
	log.Info("run finished",
		"lesson_id", out.LessonID,
		"status", out.Status,
		"reached", out.Reached,
	)
	return out
}

func (p *Pipeline) run(ctx context.Context, tr *Tracker, rd *ctxutil.RunData) Outcome {
	start := p.now()
	l, rep, err := p.Compose(ctx)
	if err != nil {
		tr.ComposeFailed(kindOr(err, lesson.KindCanceled), err.Error(), p.now().Sub(start))
		return tr.Finish(p.now())
	}
	rd.LessonID = l.LessonID
	tr.ComposeDone(l, rep, p.now().Sub(start))

	// persist: failure is recorded and the run proceeds
	start = p.now()
	res, err := p.Persist(ctx, l)
	if err != nil {
		tr.PersistDone(res, kindOr(err, lesson.KindStoreCreationFailed), err.Error(), p.now().Sub(start))
	} else {
		tr.PersistDone(res, "", "", p.now().Sub(start))
	}
	if ctx.Err() != nil {
		tr.Canceled(ctx.Err().Error(), lesson.StageHandoff, lesson.StageDeliver)
		return tr.Finish(p.now())
	}

	// handoff + gate: the only branch point
	start = p.now()
	h, verdict, err := p.Handoff(ctx, l)
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	if !tr.HandoffDone(verdict, errMsg, p.now().Sub(start)) {
		return tr.Finish(p.now())
	}

	start = p.now()
	email := p.Deliver(ctx, h)
	tr.DeliverDone(email, ctx.Err() != nil, p.now().Sub(start))
	return tr.Finish(p.now())
}

// Compose runs the composer stage under its own span.
func (p *Pipeline) Compose(ctx context.Context) (lesson.Lesson, compose.Report, error) {
	ctx, span := observability.StartSpan(ctx, "stage.compose")
	l, rep, err := p.composer.Compose(ctx)
	observability.EndSpan(span, err)
	return l, rep, err
}

// Persist runs the persistence bridge. A failure is fatal to this stage only.
func (p *Pipeline) Persist(ctx context.Context, l lesson.Lesson) (persist.Result, error) {
	ctx, span := observability.StartSpan(ctx, "stage.persist", attribute.String("lesson_id", l.LessonID))
	res, err := p.persist.PersistResult(ctx, l)
	observability.EndSpan(span, err)
	if err != nil {
		p.log.Warn("persistence failed; continuing to digest", "lesson_id", l.LessonID, "error", err)
	}
	return res, err
}

// Handoff serializes the lesson and applies the gate to the payload.
func (p *Pipeline) Handoff(ctx context.Context, l lesson.Lesson) (Handoff, gate.Result, error) {
	_, span := observability.StartSpan(ctx, "stage.handoff", attribute.String("lesson_id", l.LessonID))
	h, err := p.encode(l)
	if err != nil {
		observability.EndSpan(span, err)
		return Handoff{}, gate.Result{Proceed: false, Info: map[string]any{"error": err.Error()}}, err
	}
	verdict := CheckHandoff(h)
	span.SetAttributes(attribute.Bool("gate.proceed", verdict.Proceed))
	var gateErr error
	if !verdict.Proceed {
		gateErr = errors.New(verdict.Message())
		p.log.Error("handoff rejected by gate", "lesson_id", l.LessonID, "info", verdict.Info)
	}
	observability.EndSpan(span, gateErr)
	return h, verdict, nil
}

// CheckHandoff applies the gate to the handoff payload.
func CheckHandoff(h Handoff) gate.Result {
	return gate.Check(h.Payload)
}

// Deliver formats the handed-off lesson and sends the digest.
func (p *Pipeline) Deliver(ctx context.Context, h Handoff) digest.EmailOutcome {
	ctx, span := observability.StartSpan(ctx, "stage.deliver", attribute.String("lesson_id", h.Lesson.LessonID))
	out := p.sender.Send(ctx, digest.Digest{LessonID: h.Lesson.LessonID, Text: digest.Format(h.Lesson)})
	var err error
	if !out.OK() {
		err = errors.New(out.Message)
	}
	observability.EndSpan(span, err)
	return out
}

func kindOr(err error, def lesson.Kind) lesson.Kind {
	if k := lesson.KindOf(err); k != "" {
		return k
	}
	return def
}

// ---- run history ----

func (p *Pipeline) recordStart(ctx context.Context, runID uuid.UUID, started time.Time) {
	if p.recorder == nil {
		return
	}
	run := &lesson.LessonRun{ID: runID, Status: string(lesson.RunStatusRunning), StartedAt: started}
	if err := p.recorder.Create(context.WithoutCancel(ctx), run); err != nil {
		p.log.Warn("run history create failed", "run_id", runID, "error", err)
	}
}

func (p *Pipeline) recordFinish(ctx context.Context, runID uuid.UUID, out Outcome) {
	if p.recorder == nil {
		return
	}
	run, err := RunFromOutcome(runID, out)
	if err != nil {
		p.log.Warn("run history encode failed", "run_id", runID, "error", err)
		return
	}
	if err := p.recorder.Update(context.WithoutCancel(ctx), run); err != nil {
		p.log.Warn("run history update failed", "run_id", runID, "error", err)
	}
}

// RunFromOutcome maps an outcome onto its run-history row.
func RunFromOutcome(runID uuid.UUID, out Outcome) (*lesson.LessonRun, error) {
	ob, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	run := &lesson.LessonRun{
		ID:        runID,
		LessonID:  out.LessonID,
		Status:    string(out.Status),
		Reached:   string(out.Reached),
		Outcome:   datatypes.JSON(ob),
		StartedAt: out.StartedAt,
	}
	if !out.FinishedAt.IsZero() {
		fin := out.FinishedAt
		run.FinishedAt = &fin
	}
	if f := out.FirstFailure; f != nil {
		run.FailureStage = string(f.Stage)
		run.FailureKind = string(f.Kind)
		run.Error = f.Message
	}
	if out.Lesson != nil {
		lb, err := out.Lesson.Marshal()
		if err != nil {
			return nil, err
		}
		run.Lesson = datatypes.JSON(lb)
	}
	return run, nil
}
