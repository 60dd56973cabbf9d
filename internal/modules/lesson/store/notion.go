package store

import (
	"context"
	"fmt"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/platform/notion"
)

const (
	propItem     = "Item"
	propMeaning  = "Meaning"
	propItemType = "Item Type"
	propMastery  = "Mastery Level"
)

var itemTypeColors = map[lesson.ItemType]string{
	lesson.ItemVocabulary:      "blue",
	lesson.ItemSentencePattern: "orange",
	lesson.ItemDialogue:        "green",
}

// Notion keeps each run's items in a Notion database under a parent page.
type Notion struct {
	client notion.Client
	title  string
}

func NewNotion(client notion.Client, title string) *Notion {
	if title == "" {
		title = DefaultTitle
	}
	return &Notion{client: client, title: title}
}

func (n *Notion) CreateStore(ctx context.Context, parentRef string) (string, error) {
	options := make([]notion.SelectOption, 0, len(lesson.ItemTypes))
	for _, t := range lesson.ItemTypes {
		options = append(options, notion.SelectOption{Name: string(t), Color: itemTypeColors[t]})
	}
	db, err := n.client.CreateDatabase(ctx, notion.CreateDatabaseRequest{
		Parent: notion.PageParent(parentRef),
		Title:  notion.Text(n.title),
		Properties: map[string]notion.PropertySchema{
			propItem:     {Title: &struct{}{}},
			propMeaning:  {RichText: &struct{}{}},
			propItemType: {Select: &notion.SelectSchema{Options: options}},
			propMastery:  {Number: &notion.NumberSchema{Format: "number"}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create notion database: %w", err)
	}
	return db.ID, nil
}

func (n *Notion) InsertItem(ctx context.Context, storeID string, item lesson.LearningItem) (string, error) {
	mastery := float64(item.MasteryLevel)
	page, err := n.client.CreatePage(ctx, notion.CreatePageRequest{
		Parent: notion.DatabaseParent(storeID),
		Properties: map[string]notion.PropertyValue{
			propItem:     {Title: notion.Text(item.Item)},
			propMeaning:  {RichText: notion.Text(item.Meaning)},
			propItemType: {Select: &notion.SelectOption{Name: string(item.ItemType)}},
			propMastery:  {Number: &mastery},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create notion page: %w", err)
	}
	return page.ID, nil
}
