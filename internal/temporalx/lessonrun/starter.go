package lessonrun

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
)

// Starter launches runs on a Temporal worker.
type Starter struct {
	tc        temporalsdkclient.Client
	taskQueue string
}

func NewStarter(tc temporalsdkclient.Client, taskQueue string) (*Starter, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	return &Starter{tc: tc, taskQueue: taskQueue}, nil
}

// Start enqueues a run and returns its id without waiting for completion.
func (s *Starter) Start(ctx context.Context) (uuid.UUID, error) {
	runID := uuid.New()
	_, err := s.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:                    WorkflowID(runID.String()),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, WorkflowName, Input{RunID: runID.String()})
	if err != nil {
		return uuid.Nil, fmt.Errorf("start lesson run workflow: %w", err)
	}
	return runID, nil
}
