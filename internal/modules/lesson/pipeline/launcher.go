package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Launcher starts runs in-process without blocking the caller.
type Launcher struct {
	p  *Pipeline
	wg sync.WaitGroup
}

func NewLauncher(p *Pipeline) *Launcher {
	return &Launcher{p: p}
}

// Start begins a run detached from ctx's cancellation and returns its id.
func (l *Launcher) Start(ctx context.Context) (uuid.UUID, error) {
	runID := uuid.New()
	runCtx := context.WithoutCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.p.RunWithID(runCtx, runID)
	}()
	return runID, nil
}

// Wait blocks until every started run has finished.
func (l *Launcher) Wait() {
	l.wg.Wait()
}
