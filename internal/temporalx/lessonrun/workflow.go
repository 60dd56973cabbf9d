package lessonrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/digest"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/pipeline"
)

// Workflow runs one lesson pipeline as a sequence of activities. Each stage
// executes at most once: store creation and email delivery are not idempotent.
func Workflow(ctx workflow.Context, in Input) (pipeline.Outcome, error) {
	runID := strings.TrimSpace(in.RunID)
	if runID == "" {
		return pipeline.Outcome{}, fmt.Errorf("lessonrun: missing run_id")
	}
	in.RunID = runID
	log := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	started := workflow.Now(ctx)
	tr := pipeline.NewTracker(runID, started)

	if err := workflow.ExecuteActivity(ctx, ActivityStart, StartInput{RunID: runID, StartedAt: started}).Get(ctx, nil); err != nil {
		log.Warn("run history start failed", "run_id", runID, "error", err)
	}

	out := run(ctx, tr, in)

	fin := FinishInput{Outcome: out, Lesson: out.Lesson}
	if err := workflow.ExecuteActivity(ctx, ActivityFinish, fin).Get(ctx, nil); err != nil {
		log.Warn("run history finish failed", "run_id", runID, "error", err)
	}
	log.Info("lesson run finished", "run_id", runID, "lesson_id", out.LessonID, "status", out.Status)
	return out, nil
}

func run(ctx workflow.Context, tr *pipeline.Tracker, in Input) pipeline.Outcome {
	since := func(t time.Time) time.Duration { return workflow.Now(ctx).Sub(t) }

	start := workflow.Now(ctx)
	var composed ComposeResult
	if err := workflow.ExecuteActivity(ctx, ActivityCompose, in).Get(ctx, &composed); err != nil {
		tr.ComposeFailed(activityKind(ctx, lesson.KindCanceled), err.Error(), since(start))
		return tr.Finish(workflow.Now(ctx))
	}
	if composed.Fault != nil {
		tr.ComposeFailed(composed.Fault.Kind, composed.Fault.Message, since(start))
		return tr.Finish(workflow.Now(ctx))
	}
	l := composed.Lesson
	tr.ComposeDone(l, composed.Report, since(start))

	start = workflow.Now(ctx)
	var persisted PersistResult
	if err := workflow.ExecuteActivity(ctx, ActivityPersist, in, l).Get(ctx, &persisted); err != nil {
		tr.PersistDone(persisted.Result, activityKind(ctx, lesson.KindStoreCreationFailed), err.Error(), since(start))
	} else if persisted.Fault != nil {
		tr.PersistDone(persisted.Result, persisted.Fault.Kind, persisted.Fault.Message, since(start))
	} else {
		tr.PersistDone(persisted.Result, "", "", since(start))
	}
	if ctx.Err() != nil {
		tr.Canceled(ctx.Err().Error(), lesson.StageHandoff, lesson.StageDeliver)
		return tr.Finish(workflow.Now(ctx))
	}

	start = workflow.Now(ctx)
	var handed HandoffResult
	errMsg := ""
	if err := workflow.ExecuteActivity(ctx, ActivityHandoff, in, l).Get(ctx, &handed); err != nil {
		errMsg = err.Error()
	} else if handed.Fault != nil {
		errMsg = handed.Fault.Message
	}
	if !tr.HandoffDone(handed.Gate, errMsg, since(start)) {
		return tr.Finish(workflow.Now(ctx))
	}

	start = workflow.Now(ctx)
	var email digest.EmailOutcome
	if err := workflow.ExecuteActivity(ctx, ActivityDeliver, in, handed.Handoff).Get(ctx, &email); err != nil {
		email = digest.EmailOutcome{Status: digest.StatusError, Message: err.Error()}
	}
	tr.DeliverDone(email, ctx.Err() != nil, since(start))
	return tr.Finish(workflow.Now(ctx))
}

func activityKind(ctx workflow.Context, def lesson.Kind) lesson.Kind {
	if ctx.Err() != nil {
		return lesson.KindCanceled
	}
	return def
}
