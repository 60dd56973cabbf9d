package persist

import (
	"strings"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

// Curate enforces the insertion post-condition: no blank or untyped items, no
// duplicates, at most max items, mastery 0 on every item.
func Curate(in []lesson.LearningItem, max int) []lesson.LearningItem {
	if max <= 0 || max > lesson.MaxLearningItems {
		max = lesson.MaxLearningItems
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]lesson.LearningItem, 0, max)
	for _, it := range in {
		if len(out) == max {
			break
		}
		it.Item = strings.TrimSpace(it.Item)
		it.Meaning = strings.TrimSpace(it.Meaning)
		if it.Item == "" {
			continue
		}
		if !it.ItemType.Valid() {
			t, ok := lesson.ParseItemType(string(it.ItemType))
			if !ok {
				continue
			}
			it.ItemType = t
		}
		key := it.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		it.MasteryLevel = 0
		out = append(out, it)
	}
	return out
}
