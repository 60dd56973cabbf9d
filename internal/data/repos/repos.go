package repos

import (
	"gorm.io/gorm"

	"github.com/guan-wang/guans-lala-land/internal/data/repos/lessons"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

type LearningStoreRepo = lessons.LearningStoreRepo
type LessonRunRepo = lessons.LessonRunRepo

// Repos groups every repository the service needs.
type Repos struct {
	LearningStores LearningStoreRepo
	LessonRuns     LessonRunRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		LearningStores: lessons.NewLearningStoreRepo(db, log),
		LessonRuns:     lessons.NewLessonRunRepo(db, log),
	}
}
