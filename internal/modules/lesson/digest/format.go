package digest

import (
	"fmt"
	"strings"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

const (
	heavyRule = "═══════════════════════════════════════════════════════════"
	lightRule = "───────────────────────────────────────────────────────────"
)

// Format renders the lesson as the plain-text digest. Output depends only on l.
func Format(l lesson.Lesson) string {
	var b strings.Builder
	b.WriteString("📚 Korean Learning Lesson\n")
	fmt.Fprintf(&b, "Lesson ID: %s\n", l.LessonID)
	fmt.Fprintf(&b, "Date: %s\n\n", l.CreatedDate)
	b.WriteString(heavyRule + "\n\n")
	b.WriteString("📰 ARTICLES\n")

	for i, a := range l.ArticleContent.Articles {
		fmt.Fprintf(&b, "\n📌 Article %d: %s\n\n", i+1, a.Title)
		fmt.Fprintf(&b, "🇰🇷 Korean Summary:\n%s\n\n", a.SummaryKorean)
		fmt.Fprintf(&b, "🇺🇸 English Summary:\n%s\n\n", a.SummaryEnglish)
		b.WriteString("📖 Key Learning Points:\n")
		fmt.Fprintf(&b, "• Vocabulary: %s\n", strings.Join(a.KeyVocabulary, ", "))
		fmt.Fprintf(&b, "• Grammar Structures: %s\n", strings.Join(a.KeyStructures, ", "))
		fmt.Fprintf(&b, "• Expressions: %s\n\n", strings.Join(a.KeyExpressions, ", "))
		fmt.Fprintf(&b, "✍️ Practice Text (%s Level):\n%s\n\n", level(a.DifficultyLevel), a.SimplifiedParagraph)
		b.WriteString(lightRule + "\n")
	}

	c := l.ConversationContent
	b.WriteString("\n💬 CONVERSATION PRACTICE\n\n")
	fmt.Fprintf(&b, "Topic: %s\n%s\n\n", c.TopicName, c.Description)
	b.WriteString("📖 Key Learning Points:\n")
	fmt.Fprintf(&b, "• Vocabulary: %s\n", strings.Join(c.KeyVocabulary, ", "))
	fmt.Fprintf(&b, "• Sentence Patterns: %s\n\n", strings.Join(c.SentencePatterns, ", "))
	fmt.Fprintf(&b, "🗣️ Sample Dialogue:\n%s\n\n", c.SampleDialogue)
	b.WriteString(heavyRule + "\n\n")
	b.WriteString("Happy Learning! 🎉\n")
	return b.String()
}

func level(s string) string {
	if strings.TrimSpace(s) == "" {
		return lesson.DifficultyA2
	}
	return s
}
