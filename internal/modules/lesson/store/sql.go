package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/guan-wang/guans-lala-land/internal/data/dbctx"
	"github.com/guan-wang/guans-lala-land/internal/data/repos"
	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

// SQL keeps each run's items in the service database.
type SQL struct {
	repo  repos.LearningStoreRepo
	title string
}

func NewSQL(repo repos.LearningStoreRepo, title string) *SQL {
	if title == "" {
		title = DefaultTitle
	}
	return &SQL{repo: repo, title: title}
}

func (s *SQL) CreateStore(ctx context.Context, parentRef string) (string, error) {
	row, err := s.repo.CreateStore(dbctx.New(ctx), parentRef, s.title)
	if err != nil {
		return "", fmt.Errorf("create learning store: %w", err)
	}
	return row.ID.String(), nil
}

func (s *SQL) InsertItem(ctx context.Context, storeID string, item lesson.LearningItem) (string, error) {
	id, err := uuid.Parse(storeID)
	if err != nil {
		return "", fmt.Errorf("store id %q: %w", storeID, err)
	}
	row, err := s.repo.InsertItem(dbctx.New(ctx), id, item)
	if err != nil {
		return "", fmt.Errorf("insert learning item: %w", err)
	}
	return row.ID.String(), nil
}
