package persist

import (
	"context"
	"fmt"
	"strings"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

// Task is what the persistence agent works from: the flattened instruction
// text plus the structured lesson it was rendered from.
type Task struct {
	Text   string
	Lesson lesson.Lesson
}

// Bridge adapts a structured Lesson into a persistence task.
type Bridge struct {
	agent *Agent
}

func NewBridge(agent *Agent) *Bridge {
	return &Bridge{agent: agent}
}

// Persist flattens l and delegates to the persistence agent. The returned
// confirmation always references the lesson id.
func (b *Bridge) Persist(ctx context.Context, l lesson.Lesson) (string, error) {
	res, err := b.PersistResult(ctx, l)
	if err != nil {
		return "", err
	}
	return res.Confirmation, nil
}

func (b *Bridge) PersistResult(ctx context.Context, l lesson.Lesson) (Result, error) {
	return b.agent.Run(ctx, Task{Text: Flatten(l), Lesson: l})
}

// Flatten renders the lesson as deterministic, human-readable instruction text.
func Flatten(l lesson.Lesson) string {
	var b strings.Builder
	b.WriteString("Here is the lesson plan data to process:\n\n")
	fmt.Fprintf(&b, "Lesson ID: %s\n", l.LessonID)
	fmt.Fprintf(&b, "Created Date: %s\n\n", l.CreatedDate)
	b.WriteString("ARTICLE CONTENT:\n")
	for i, a := range l.ArticleContent.Articles {
		fmt.Fprintf(&b, "\nArticle %d: %s\n", i+1, a.Title)
		fmt.Fprintf(&b, "  Vocabulary: %s\n", strings.Join(a.KeyVocabulary, ", "))
		fmt.Fprintf(&b, "  Structures: %s\n", strings.Join(a.KeyStructures, ", "))
		fmt.Fprintf(&b, "  Expressions: %s\n", strings.Join(a.KeyExpressions, ", "))
	}
	c := l.ConversationContent
	b.WriteString("\nCONVERSATION CONTENT:\n")
	fmt.Fprintf(&b, "Topic: %s\n", c.TopicName)
	fmt.Fprintf(&b, "Vocabulary: %s\n", strings.Join(c.KeyVocabulary, ", "))
	fmt.Fprintf(&b, "Sentence Patterns: %s\n", strings.Join(c.SentencePatterns, ", "))
	fmt.Fprintf(&b, "Sample Dialogue:\n%s\n", c.SampleDialogue)
	return b.String()
}
