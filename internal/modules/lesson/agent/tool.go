package agent

import (
	"context"
	"sync"
	"sync/atomic"
)

// Tool is a zero-argument callable wrapping one agent invocation. The
// underlying function runs at most once; later calls return the first result.
type Tool[T any] struct {
	Name string

	fn    func(context.Context) (T, error)
	once  sync.Once
	runs  atomic.Int32
	value T
	err   error
}

func NewTool[T any](name string, fn func(context.Context) (T, error)) *Tool[T] {
	return &Tool[T]{Name: name, fn: fn}
}

func (t *Tool[T]) Call(ctx context.Context) (T, error) {
	t.once.Do(func() {
		t.runs.Add(1)
		t.value, t.err = t.fn(ctx)
	})
	return t.value, t.err
}

// Runs reports how many times the wrapped function executed (0 or 1).
func (t *Tool[T]) Runs() int { return int(t.runs.Load()) }
