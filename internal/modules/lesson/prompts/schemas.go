package prompts

import (
	"sort"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

func StringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func IntSchema() map[string]any {
	return map[string]any{"type": "integer"}
}

func StringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func EnumSchema(values ...string) map[string]any {
	arr := make([]any, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	return map[string]any{"type": "string", "enum": arr}
}

// object builds a strict object schema where every property is required.
func object(properties map[string]any) map[string]any {
	req := make([]string, 0, len(properties))
	for k := range properties {
		req = append(req, k)
	}
	sort.Strings(req)
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             req,
		"additionalProperties": false,
	}
}

func articleSchema() map[string]any {
	return object(map[string]any{
		"title":                StringSchema(),
		"summary_korean":       StringSchema(),
		"summary_english":      StringSchema(),
		"key_vocabulary":       StringArraySchema(),
		"key_structures":       StringArraySchema(),
		"key_expressions":      StringArraySchema(),
		"simplified_paragraph": StringSchema(),
		"difficulty_level":     EnumSchema(lesson.DifficultyA2),
	})
}

func ArticleContentSchema() map[string]any {
	return object(map[string]any{
		"articles": map[string]any{
			"type":  "array",
			"items": articleSchema(),
		},
	})
}

func ConversationContentSchema() map[string]any {
	return object(map[string]any{
		"topic_name":        StringSchema(),
		"description":       StringSchema(),
		"key_vocabulary":    StringArraySchema(),
		"sentence_patterns": StringArraySchema(),
		"sample_dialogue":   StringSchema(),
		"difficulty_level":  EnumSchema(lesson.DifficultyA2),
	})
}

func ItemSelectionSchema() map[string]any {
	types := make([]string, 0, len(lesson.ItemTypes))
	for _, t := range lesson.ItemTypes {
		types = append(types, string(t))
	}
	return object(map[string]any{
		"items": map[string]any{
			"type": "array",
			"items": object(map[string]any{
				"item":          StringSchema(),
				"meaning":       StringSchema(),
				"item_type":     EnumSchema(types...),
				"mastery_level": IntSchema(),
			}),
		},
	})
}

var schemaFuncs = map[string]func() map[string]any{
	"article_content":      ArticleContentSchema,
	"conversation_content": ConversationContentSchema,
	"learning_items":       ItemSelectionSchema,
}
