package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
	"github.com/guan-wang/guans-lala-land/internal/temporalx"
	"github.com/guan-wang/guans-lala-land/internal/temporalx/lessonrun"
)

const startMaxWait = 60 * time.Second

type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	cfg  temporalx.Config
	acts *lessonrun.Activities
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, cfg temporalx.Config, acts *lessonrun.Activities) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil || acts.Pipeline == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{
		log:  log.With("service", "TemporalWorker"),
		tc:   tc,
		cfg:  cfg,
		acts: acts,
	}, nil
}

// Start polls the task queue until ctx is done. Start failures are retried
// for up to a minute.
func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)

	if r.cfg.AutoRegisterNamespace {
		if err := temporalx.EnsureNamespace(ctx, r.log, r.cfg); err != nil {
			r.log.Warn("Temporal namespace ensure failed; worker will retry on start", "namespace", r.cfg.Namespace, "error", err)
		}
	}

	deadline := time.Now().Add(startMaxWait)
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) {
			if !r.cfg.AutoRegisterNamespace || time.Now().After(deadline) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			_ = temporalx.EnsureNamespace(ctx, r.log, r.cfg)
		}
		if time.Now().After(deadline) {
			return startErr
		}

		r.log.Warn("Temporal worker failed to start; retrying", "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue, "attempt", attempt, "error", startErr)
		time.Sleep(temporalx.Backoff(r.cfg.DialBackoff, r.cfg.DialBackoffMax, attempt))
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := r.cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	Register(w, r.acts)
	return w
}

// Register binds the lesson run workflow and its activities to w.
func Register(w worker.Registry, acts *lessonrun.Activities) {
	w.RegisterWorkflowWithOptions(lessonrun.Workflow, workflow.RegisterOptions{Name: lessonrun.WorkflowName})
	w.RegisterActivityWithOptions(acts.Start, activity.RegisterOptions{Name: lessonrun.ActivityStart})
	w.RegisterActivityWithOptions(acts.Compose, activity.RegisterOptions{Name: lessonrun.ActivityCompose})
	w.RegisterActivityWithOptions(acts.Persist, activity.RegisterOptions{Name: lessonrun.ActivityPersist})
	w.RegisterActivityWithOptions(acts.Handoff, activity.RegisterOptions{Name: lessonrun.ActivityHandoff})
	w.RegisterActivityWithOptions(acts.Deliver, activity.RegisterOptions{Name: lessonrun.ActivityDeliver})
	w.RegisterActivityWithOptions(acts.Finish, activity.RegisterOptions{Name: lessonrun.ActivityFinish})
}
