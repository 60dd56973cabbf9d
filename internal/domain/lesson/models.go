package lesson

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LearningStore is the SQL rendition of a per-run record store.
type LearningStore struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ParentRef string         `gorm:"column:parent_ref;not null;index" json:"parent_ref"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningStore) TableName() string { return "learning_store" }

type LearningItemRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID      uuid.UUID `gorm:"type:uuid;column:store_id;not null;index" json:"store_id"`
	Item         string    `gorm:"column:item;not null" json:"item"`
	Meaning      string    `gorm:"column:meaning" json:"meaning"`
	ItemType     string    `gorm:"column:item_type;not null;index" json:"item_type"`
	MasteryLevel int       `gorm:"column:mastery_level;not null;default:0" json:"mastery_level"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}

func (LearningItemRecord) TableName() string { return "learning_item" }

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// LessonRun is one pipeline execution as seen by the run history.
type LessonRun struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID     string         `gorm:"column:lesson_id;index" json:"lesson_id"`
	Status       string         `gorm:"column:status;not null;index" json:"status"`
	Reached      string         `gorm:"column:reached" json:"reached"`
	FailureStage string         `gorm:"column:failure_stage" json:"failure_stage,omitempty"`
	FailureKind  string         `gorm:"column:failure_kind;index" json:"failure_kind,omitempty"`
	Error        string         `gorm:"column:error" json:"error,omitempty"`
	Outcome      datatypes.JSON `gorm:"column:outcome" json:"outcome"`
	Lesson       datatypes.JSON `gorm:"column:lesson" json:"lesson"`
	StartedAt    time.Time      `gorm:"column:started_at;not null;index" json:"started_at"`
	FinishedAt   *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (LessonRun) TableName() string { return "lesson_run" }

// Models lists every table the service migrates.
func Models() []any {
	return []any{&LearningStore{}, &LearningItemRecord{}, &LessonRun{}}
}
