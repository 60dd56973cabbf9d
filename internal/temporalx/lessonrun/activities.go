package lessonrun

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/digest"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/pipeline"
	"github.com/guan-wang/guans-lala-land/internal/platform/ctxutil"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"

	"go.temporal.io/sdk/activity"
)

type Activities struct {
	Log      *logger.Logger
	Pipeline *pipeline.Pipeline
	Recorder pipeline.RunRecorder
}

func (a *Activities) Start(ctx context.Context, in StartInput) error {
	if a.Recorder == nil {
		return nil
	}
	id, err := uuid.Parse(in.RunID)
	if err != nil {
		return fmt.Errorf("lessonrun: invalid run_id: %w", err)
	}
	run := &lesson.LessonRun{ID: id, Status: string(lesson.RunStatusRunning), StartedAt: in.StartedAt}
	if err := a.Recorder.Create(ctx, run); err != nil {
		a.Log.Warn("run history create failed", "run_id", in.RunID, "error", err)
	}
	return nil
}

func (a *Activities) Compose(ctx context.Context, in Input) (ComposeResult, error) {
	if a.Pipeline == nil {
		return ComposeResult{}, fmt.Errorf("lessonrun: activity not configured")
	}
	ctx = a.runCtx(ctx, in.RunID, "")
	l, rep, err := a.Pipeline.Compose(ctx)
	if err != nil {
		return ComposeResult{Fault: fault(err, lesson.KindCanceled)}, nil
	}
	return ComposeResult{Lesson: l, Report: rep}, nil
}

func (a *Activities) Persist(ctx context.Context, in Input, l lesson.Lesson) (PersistResult, error) {
	if a.Pipeline == nil {
		return PersistResult{}, fmt.Errorf("lessonrun: activity not configured")
	}
	ctx = a.runCtx(ctx, in.RunID, l.LessonID)
	res, err := a.Pipeline.Persist(ctx, l)
	return PersistResult{Result: res, Fault: fault(err, lesson.KindStoreCreationFailed)}, nil
}

func (a *Activities) Handoff(ctx context.Context, in Input, l lesson.Lesson) (HandoffResult, error) {
	if a.Pipeline == nil {
		return HandoffResult{}, fmt.Errorf("lessonrun: activity not configured")
	}
	ctx = a.runCtx(ctx, in.RunID, l.LessonID)
	h, verdict, err := a.Pipeline.Handoff(ctx, l)
	out := HandoffResult{Handoff: h, Gate: verdict}
	switch {
	case err != nil:
		out.Fault = &StageFault{Kind: lesson.KindHandoffValidationFailed, Message: err.Error()}
	case !verdict.Proceed:
		out.Fault = &StageFault{Kind: lesson.KindHandoffValidationFailed, Message: verdict.Message()}
	}
	return out, nil
}

func (a *Activities) Deliver(ctx context.Context, in Input, h pipeline.Handoff) (digest.EmailOutcome, error) {
	if a.Pipeline == nil {
		return digest.EmailOutcome{}, fmt.Errorf("lessonrun: activity not configured")
	}
	ctx = a.runCtx(ctx, in.RunID, h.Lesson.LessonID)
	return a.Pipeline.Deliver(ctx, h), nil
}

func (a *Activities) Finish(ctx context.Context, in FinishInput) error {
	if a.Recorder == nil {
		return nil
	}
	id, err := uuid.Parse(in.Outcome.RunID)
	if err != nil {
		return fmt.Errorf("lessonrun: invalid run_id: %w", err)
	}
	out := in.Outcome
	out.Lesson = in.Lesson
	run, err := pipeline.RunFromOutcome(id, out)
	if err != nil {
		return err
	}
	if err := a.Recorder.Update(ctx, run); err != nil {
		a.Log.Warn("run history update failed", "run_id", in.Outcome.RunID, "error", err)
	}
	return nil
}

func (a *Activities) runCtx(ctx context.Context, runID, lessonID string) context.Context {
	info := activity.GetInfo(ctx)
	a.Log.Debug("activity started", "activity", info.ActivityType.Name, "run_id", runID, "attempt", info.Attempt)
	return ctxutil.WithRunData(ctx, &ctxutil.RunData{RunID: runID, LessonID: lessonID})
}
