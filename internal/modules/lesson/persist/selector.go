package persist

import (
	"context"
	"fmt"
	"strings"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/agent"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/prompts"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

const (
	ModeGenerative = "generative"
	ModeRule       = "rule"

	dialogueExcerpts = 2
)

// ItemSelector picks the learning items to persist from one task.
type ItemSelector interface {
	Select(ctx context.Context, task Task, max int) ([]lesson.LearningItem, error)
}

// NewSelector returns the selector for mode. Unknown modes select generatively.
func NewSelector(log *logger.Logger, mode string, provider agent.Provider, reg *prompts.Registry) ItemSelector {
	rule := RuleSelector{}
	if strings.EqualFold(strings.TrimSpace(mode), ModeRule) || provider == nil || reg == nil {
		return rule
	}
	return &GenerativeSelector{
		log:      log.With("service", "GenerativeItemSelector"),
		provider: provider,
		reg:      reg,
		fallback: rule,
	}
}

// GenerativeSelector asks the persistence persona to choose items from the
// task text. Empty or unparseable output falls back to the rule selector.
type GenerativeSelector struct {
	log      *logger.Logger
	provider agent.Provider
	reg      *prompts.Registry
	fallback ItemSelector
}

type selection struct {
	Items []struct {
		Item         string `json:"item"`
		Meaning      string `json:"meaning"`
		ItemType     string `json:"item_type"`
		MasteryLevel int    `json:"mastery_level"`
	} `json:"items"`
}

func (s *GenerativeSelector) Select(ctx context.Context, task Task, max int) ([]lesson.LearningItem, error) {
	items, err := s.generate(ctx, task, max)
	if err == nil && len(Curate(items, max)) > 0 {
		return items, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	reason := "no usable items"
	if err != nil {
		reason = err.Error()
	}
	s.log.Warn("generative selection unusable; using rule selection",
		"lesson_id", task.Lesson.LessonID,
		"reason", reason,
	)
	return s.fallback.Select(ctx, task, max)
}

func (s *GenerativeSelector) generate(ctx context.Context, task Task, max int) ([]lesson.LearningItem, error) {
	p, err := s.reg.Build(prompts.PromptItemSelection, prompts.Input{
		LessonID: task.Lesson.LessonID,
		TaskText: task.Text,
		MaxItems: max,
	})
	if err != nil {
		return nil, err
	}
	sel, err := agent.JSON[selection](ctx, s.provider, p)
	if err != nil {
		return nil, err
	}
	out := make([]lesson.LearningItem, 0, len(sel.Items))
	for _, it := range sel.Items {
		t, ok := lesson.ParseItemType(it.ItemType)
		if !ok {
			continue
		}
		out = append(out, lesson.LearningItem{
			Item:         it.Item,
			Meaning:      it.Meaning,
			ItemType:     t,
			MasteryLevel: it.MasteryLevel,
		})
	}
	return out, nil
}

// RuleSelector is the deterministic selection: two dialogue excerpts, then
// sentence patterns and vocabulary in alternation.
type RuleSelector struct{}

func (RuleSelector) Select(_ context.Context, task Task, max int) ([]lesson.LearningItem, error) {
	if max <= 0 || max > lesson.MaxLearningItems {
		max = lesson.MaxLearningItems
	}
	l := task.Lesson
	c := l.ConversationContent

	var out []lesson.LearningItem
	for _, ex := range dialogueChunks(c.SampleDialogue, dialogueExcerpts) {
		out = append(out, lesson.LearningItem{
			Item:     ex,
			Meaning:  fmt.Sprintf("Dialogue excerpt: %s", c.TopicName),
			ItemType: lesson.ItemDialogue,
		})
	}

	var patterns, vocab []lesson.LearningItem
	for _, p := range c.SentencePatterns {
		patterns = append(patterns, termItem(p, lesson.ItemSentencePattern, c.TopicName))
	}
	for _, v := range c.KeyVocabulary {
		vocab = append(vocab, termItem(v, lesson.ItemVocabulary, c.TopicName))
	}
	for _, a := range l.ArticleContent.Articles {
		for _, s := range a.KeyStructures {
			patterns = append(patterns, termItem(s, lesson.ItemSentencePattern, a.Title))
		}
		for _, e := range a.KeyExpressions {
			patterns = append(patterns, termItem(e, lesson.ItemSentencePattern, a.Title))
		}
		for _, v := range a.KeyVocabulary {
			vocab = append(vocab, termItem(v, lesson.ItemVocabulary, a.Title))
		}
	}

	for i := 0; i < len(patterns) || i < len(vocab); i++ {
		if i < len(patterns) {
			out = append(out, patterns[i])
		}
		if i < len(vocab) {
			out = append(out, vocab[i])
		}
	}
	return Curate(out, max), nil
}

// termItem splits "term (meaning)", "term - meaning" or "term: meaning".
func termItem(raw string, t lesson.ItemType, source string) lesson.LearningItem {
	term, meaning := splitTerm(raw)
	if meaning == "" {
		meaning = fmt.Sprintf("From: %s", source)
	}
	return lesson.LearningItem{Item: term, Meaning: meaning, ItemType: t}
}

func splitTerm(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, " ("); i > 0 && strings.HasSuffix(raw, ")") {
		return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+2 : len(raw)-1])
	}
	for _, sep := range []string{" - ", ": "} {
		if i := strings.Index(raw, sep); i > 0 {
			return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+len(sep):])
		}
	}
	return raw, ""
}

// dialogueChunks groups the dialogue into consecutive two-line exchanges.
func dialogueChunks(dialogue string, n int) []string {
	var lines []string
	for _, ln := range strings.Split(dialogue, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	var out []string
	for i := 0; i < len(lines) && len(out) < n; i += 2 {
		end := i + 2
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, strings.Join(lines[i:end], "\n"))
	}
	return out
}
