package lessons

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/guan-wang/guans-lala-land/internal/data/dbctx"
	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

const defaultListLimit = 20

type LessonRunRepo interface {
	Create(dbc dbctx.Context, run *lesson.LessonRun) error
	Update(dbc dbctx.Context, run *lesson.LessonRun) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*lesson.LessonRun, error)
	List(dbc dbctx.Context, limit int) ([]*lesson.LessonRun, error)
}

type lessonRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRunRepo(db *gorm.DB, baseLog *logger.Logger) LessonRunRepo {
	return &lessonRunRepo{
		db:  db,
		log: baseLog.With("repo", "LessonRunRepo"),
	}
}

func (r *lessonRunRepo) Create(dbc dbctx.Context, run *lesson.LessonRun) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("run id required")
	}
	return dbc.DB(r.db).Create(run).Error
}

// Update writes the terminal fields of a run, creating the row when the
// initial insert never landed.
func (r *lessonRunRepo) Update(dbc dbctx.Context, run *lesson.LessonRun) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("run id required")
	}
	tx := dbc.DB(r.db)
	res := tx.Model(&lesson.LessonRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"lesson_id":     run.LessonID,
			"status":        run.Status,
			"reached":       run.Reached,
			"failure_stage": run.FailureStage,
			"failure_kind":  run.FailureKind,
			"error":         run.Error,
			"outcome":       run.Outcome,
			"lesson":        run.Lesson,
			"finished_at":   run.FinishedAt,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Warn("run row missing on update; inserting", "run_id", run.ID)
		return tx.Create(run).Error
	}
	return nil
}

func (r *lessonRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*lesson.LessonRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var run lesson.LessonRun
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&run).Error; err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *lessonRunRepo) List(dbc dbctx.Context, limit int) ([]*lesson.LessonRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var out []*lesson.LessonRun
	if err := dbc.DB(r.db).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RunRecorder adapts a LessonRunRepo to the context-only recorder the
// orchestrator writes history through.
type RunRecorder struct {
	repo LessonRunRepo
}

func NewRunRecorder(repo LessonRunRepo) *RunRecorder {
	return &RunRecorder{repo: repo}
}

func (r *RunRecorder) Create(ctx context.Context, run *lesson.LessonRun) error {
	return r.repo.Create(dbctx.New(ctx), run)
}

func (r *RunRecorder) Update(ctx context.Context, run *lesson.LessonRun) error {
	return r.repo.Update(dbctx.New(ctx), run)
}
