package ctxutil

import "context"

type runDataKey struct{}

// RunData identifies the pipeline run a call belongs to.
type RunData struct {
	RunID    string
	LessonID string
}

func WithRunData(ctx context.Context, rd *RunData) context.Context {
	return context.WithValue(Default(ctx), runDataKey{}, rd)
}

func GetRunData(ctx context.Context) *RunData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(runDataKey{}).(*RunData); ok {
		return rd
	}
	return nil
}

// RunID returns the run id stored in ctx, or "".
func RunID(ctx context.Context) string {
	if rd := GetRunData(ctx); rd != nil {
		return rd.RunID
	}
	return ""
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
