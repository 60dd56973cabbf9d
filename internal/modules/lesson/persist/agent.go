package persist

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/store"
	"github.com/guan-wang/guans-lala-land/internal/observability"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

// Result summarizes one persistence run.
type Result struct {
	LessonID     string   `json:"lesson_id"`
	StoreID      string   `json:"store_id"`
	Selected     int      `json:"selected"`
	Inserted     int      `json:"inserted"`
	Failed       int      `json:"failed"`
	InsertErrors []string `json:"insert_errors,omitempty"`
	Confirmation string   `json:"confirmation"`
}

type AgentConfig struct {
	ParentRef string
	MaxItems  int
}

// Agent creates one record store per task and fills it with a curated subset
// of learning items, one insert at a time.
type Agent struct {
	log      *logger.Logger
	store    store.RecordStore
	selector ItemSelector
	cfg      AgentConfig
}

func NewAgent(log *logger.Logger, rs store.RecordStore, selector ItemSelector, cfg AgentConfig) *Agent {
	if cfg.MaxItems <= 0 || cfg.MaxItems > lesson.MaxLearningItems {
		cfg.MaxItems = lesson.MaxLearningItems
	}
	if selector == nil {
		selector = RuleSelector{}
	}
	return &Agent{
		log:      log.With("service", "PersistenceAgent"),
		store:    rs,
		selector: selector,
		cfg:      cfg,
	}
}

func (a *Agent) Run(ctx context.Context, task Task) (Result, error) {
	id := task.Lesson.LessonID
	res := Result{LessonID: id}

	// Exactly one creation attempt; without a store id nothing is inserted.
	cctx, span := observability.StartSpan(ctx, "persist.create_store", attribute.String("lesson_id", id))
	storeID, err := a.store.CreateStore(cctx, a.cfg.ParentRef)
	observability.EndSpan(span, err)
	if err != nil {
		a.log.Error("record store creation failed", "lesson_id", id, "error", err)
		kind := lesson.KindStoreCreationFailed
		if ctx.Err() != nil {
			kind = lesson.KindCanceled
		}
		return res, lesson.NewStageError(lesson.StagePersist, kind, err)
	}
	res.StoreID = storeID

	selected, err := a.selector.Select(ctx, task, a.cfg.MaxItems)
	if err != nil {
		if ctx.Err() != nil {
			res.Confirmation = confirmation(res)
			return res, lesson.NewStageError(lesson.StagePersist, lesson.KindCanceled, ctx.Err())
		}
		a.log.Warn("item selection failed; store left empty", "lesson_id", id, "error", err)
	}
	items := Curate(selected, a.cfg.MaxItems)
	res.Selected = len(items)

	for i, it := range items {
		if err := ctx.Err(); err != nil {
			res.Confirmation = confirmation(res)
			return res, lesson.NewStageError(lesson.StagePersist, lesson.KindCanceled, err)
		}
		ictx, span := observability.StartSpan(ctx, "persist.insert_item",
			attribute.Int("index", i),
			attribute.String("item_type", string(it.ItemType)),
		)
		_, err := a.store.InsertItem(ictx, storeID, it)
		observability.EndSpan(span, err)
		if err != nil {
			ierr := lesson.NewStageError(lesson.StagePersist, lesson.KindItemInsertFailed, fmt.Errorf("item %d %q: %w", i, it.Item, err))
			res.Failed++
			res.InsertErrors = append(res.InsertErrors, ierr.Error())
			a.log.Warn("learning item insert failed; skipping", "lesson_id", id, "index", i, "error", err)
			continue
		}
		res.Inserted++
	}

	res.Confirmation = confirmation(res)
	a.log.Info("lesson persisted",
		"lesson_id", id,
		"store_id", storeID,
		"selected", res.Selected,
		"inserted", res.Inserted,
		"failed", res.Failed,
	)
	return res, nil
}

func confirmation(r Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Successfully processed lesson %s. Inserted %d of %d selected items into store %s.",
		r.LessonID, r.Inserted, r.Selected, r.StoreID)
	if r.Failed > 0 {
		fmt.Fprintf(&b, " %d items failed to insert.", r.Failed)
	}
	return b.String()
}
