package lessons

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/guan-wang/guans-lala-land/internal/data/dbctx"
	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

type LearningStoreRepo interface {
	CreateStore(dbc dbctx.Context, parentRef string, title string) (*lesson.LearningStore, error)
	InsertItem(dbc dbctx.Context, storeID uuid.UUID, item lesson.LearningItem) (*lesson.LearningItemRecord, error)
	ListItems(dbc dbctx.Context, storeID uuid.UUID) ([]*lesson.LearningItemRecord, error)
}

type learningStoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningStoreRepo(db *gorm.DB, baseLog *logger.Logger) LearningStoreRepo {
	return &learningStoreRepo{
		db:  db,
		log: baseLog.With("repo", "LearningStoreRepo"),
	}
}

func (r *learningStoreRepo) CreateStore(dbc dbctx.Context, parentRef string, title string) (*lesson.LearningStore, error) {
	now := time.Now().UTC()
	row := &lesson.LearningStore{
		ID:        uuid.New(),
		ParentRef: strings.TrimSpace(parentRef),
		Title:     strings.TrimSpace(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if row.Title == "" {
		return nil, fmt.Errorf("store title required")
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *learningStoreRepo) InsertItem(dbc dbctx.Context, storeID uuid.UUID, item lesson.LearningItem) (*lesson.LearningItemRecord, error) {
	if storeID == uuid.Nil {
		return nil, fmt.Errorf("store id required")
	}
	if strings.TrimSpace(item.Item) == "" {
		return nil, fmt.Errorf("item text required")
	}
	if !item.ItemType.Valid() {
		return nil, fmt.Errorf("invalid item type %q", item.ItemType)
	}
	tx := dbc.DB(r.db)

	var n int64
	if err := tx.Model(&lesson.LearningStore{}).Where("id = ?", storeID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("store %s not found", storeID)
	}

	row := &lesson.LearningItemRecord{
		ID:           uuid.New(),
		StoreID:      storeID,
		Item:         item.Item,
		Meaning:      item.Meaning,
		ItemType:     string(item.ItemType),
		MasteryLevel: item.MasteryLevel,
		CreatedAt:    time.Now().UTC(),
	}
	if err := tx.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *learningStoreRepo) ListItems(dbc dbctx.Context, storeID uuid.UUID) ([]*lesson.LearningItemRecord, error) {
	var out []*lesson.LearningItemRecord
	if storeID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
