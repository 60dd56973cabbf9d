package store

import (
	"context"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

// DefaultTitle names every store created for a run.
const DefaultTitle = "Language Learning Database"

// RecordStore is the learner's external item store. One store is created per
// run; items are inserted one at a time and committed independently.
type RecordStore interface {
	CreateStore(ctx context.Context, parentRef string) (storeID string, err error)
	InsertItem(ctx context.Context, storeID string, item lesson.LearningItem) (itemID string, err error)
}
