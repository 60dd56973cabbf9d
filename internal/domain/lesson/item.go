package lesson

import "strings"

// MaxLearningItems bounds the items persisted from one lesson.
const MaxLearningItems = 10

type ItemType string

const (
	ItemVocabulary      ItemType = "Vocabulary"
	ItemSentencePattern ItemType = "Sentence Pattern"
	ItemDialogue        ItemType = "Dialogue"
)

var ItemTypes = []ItemType{ItemVocabulary, ItemSentencePattern, ItemDialogue}

func (t ItemType) Valid() bool {
	switch t {
	case ItemVocabulary, ItemSentencePattern, ItemDialogue:
		return true
	}
	return false
}

// ParseItemType accepts the canonical names plus common spellings such as
// "sentence_pattern" or "SentencePattern".
func ParseItemType(s string) (ItemType, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "", "-", "", " ", "").Replace(norm)
	switch norm {
	case "vocabulary", "vocab", "word":
		return ItemVocabulary, true
	case "sentencepattern", "pattern", "structure", "grammar":
		return ItemSentencePattern, true
	case "dialogue", "dialog", "conversation":
		return ItemDialogue, true
	}
	return "", false
}

// LearningItem is one record written to the learner's record store.
type LearningItem struct {
	Item         string   `json:"item"`
	Meaning      string   `json:"meaning"`
	ItemType     ItemType `json:"item_type"`
	MasteryLevel int      `json:"mastery_level"`
}

// Key is the identity used for de-duplication.
func (i LearningItem) Key() string {
	return string(i.ItemType) + "|" + strings.ToLower(strings.TrimSpace(i.Item))
}
