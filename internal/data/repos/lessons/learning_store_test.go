package lessons

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/guan-wang/guans-lala-land/internal/data/dbctx"
	"github.com/guan-wang/guans-lala-land/internal/data/repos/testutil"
	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

func TestLearningStoreRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewLearningStoreRepo(db, testutil.Logger(t))

	st, err := repo.CreateStore(dbc, "parent-page", "Language Learning Database")
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if st.ID == uuid.Nil || st.ParentRef != "parent-page" {
		t.Fatalf("CreateStore: unexpected row %+v", st)
	}

	items := []lesson.LearningItem{
		{Item: "축제", Meaning: "festival", ItemType: lesson.ItemVocabulary},
		{Item: "-고 싶어요", Meaning: "want to", ItemType: lesson.ItemSentencePattern, MasteryLevel: 0},
	}
	for _, it := range items {
		if _, err := repo.InsertItem(dbc, st.ID, it); err != nil {
			t.Fatalf("InsertItem(%q): %v", it.Item, err)
		}
	}

	rows, err := repo.ListItems(dbc, st.ID)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListItems: expected 2, got %d", len(rows))
	}
	if rows[0].StoreID != st.ID || rows[0].MasteryLevel != 0 {
		t.Fatalf("ListItems: unexpected row %+v", rows[0])
	}
}

func TestLearningStoreRepoRejects(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewLearningStoreRepo(db, testutil.Logger(t))

	if _, err := repo.CreateStore(dbc, "p", "  "); err == nil {
		t.Fatalf("CreateStore: expected error for blank title")
	}
	if _, err := repo.InsertItem(dbc, uuid.New(), lesson.LearningItem{Item: "x", ItemType: lesson.ItemVocabulary}); err == nil {
		t.Fatalf("InsertItem: expected error for unknown store")
	}

	st, err := repo.CreateStore(dbc, "p", "t")
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if _, err := repo.InsertItem(dbc, st.ID, lesson.LearningItem{Item: "x", ItemType: "Grammar"}); err == nil {
		t.Fatalf("InsertItem: expected error for invalid item type")
	}
	if _, err := repo.InsertItem(dbc, st.ID, lesson.LearningItem{Item: " ", ItemType: lesson.ItemDialogue}); err == nil {
		t.Fatalf("InsertItem: expected error for blank item")
	}
}
