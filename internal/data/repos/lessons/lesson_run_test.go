package lessons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/guan-wang/guans-lala-land/internal/data/dbctx"
	"github.com/guan-wang/guans-lala-land/internal/data/repos/testutil"
	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

func TestLessonRunRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewLessonRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	older := &lesson.LessonRun{ID: uuid.New(), Status: string(lesson.RunStatusRunning), StartedAt: now.Add(-time.Hour)}
	newer := &lesson.LessonRun{ID: uuid.New(), Status: string(lesson.RunStatusRunning), StartedAt: now}
	for _, run := range []*lesson.LessonRun{older, newer} {
		if err := repo.Create(dbc, run); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	fin := now.Add(time.Minute)
	if err := repo.Update(dbc, &lesson.LessonRun{
		ID:           newer.ID,
		LessonID:     "lesson_20250101_120000",
		Status:       string(lesson.RunStatusPartial),
		Reached:      string(lesson.StageDeliver),
		FailureStage: string(lesson.StagePersist),
		FailureKind:  string(lesson.KindStoreCreationFailed),
		Error:        "notion 401",
		Outcome:      datatypes.JSON([]byte(`{"status":"partial"}`)),
		Lesson:       datatypes.JSON([]byte(`{"lesson_id":"lesson_20250101_120000"}`)),
		FinishedAt:   &fin,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(dbc, newer.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if got.Status != string(lesson.RunStatusPartial) || got.FailureKind != string(lesson.KindStoreCreationFailed) {
		t.Fatalf("GetByID: unexpected row %+v", got)
	}
	if got.FinishedAt == nil {
		t.Fatalf("GetByID: expected finished_at")
	}

	list, err := repo.List(dbc, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("List: expected newest first, got %d rows", len(list))
	}

	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID(missing): err=%v got=%v", err, missing)
	}
}

func TestLessonRunRepoUpdateInsertsMissing(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewLessonRunRepo(db, testutil.Logger(t))

	run := &lesson.LessonRun{ID: uuid.New(), Status: string(lesson.RunStatusFailed), StartedAt: time.Now().UTC()}
	if err := repo.Update(dbc, run); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.GetByID(dbc, run.ID)
	if err != nil || got == nil || got.Status != string(lesson.RunStatusFailed) {
		t.Fatalf("GetByID: err=%v got=%+v", err, got)
	}
}

func TestRunRecorder(t *testing.T) {
	db := testutil.DB(t)
	rec := NewRunRecorder(NewLessonRunRepo(db, testutil.Logger(t)))
	ctx := context.Background()

	run := &lesson.LessonRun{ID: uuid.New(), Status: string(lesson.RunStatusRunning), StartedAt: time.Now().UTC()}
	if err := rec.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	run.Status = string(lesson.RunStatusSucceeded)
	if err := rec.Update(ctx, run); err != nil {
		t.Fatalf("Update: %v", err)
	}
	var n int64
	db.Model(&lesson.LessonRun{}).Where("status = ?", "succeeded").Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 succeeded run, got %d", n)
	}
}
