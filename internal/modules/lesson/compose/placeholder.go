package compose

import (
	"fmt"
	"strings"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

const PlaceholderPrefix = "[Placeholder]"

func PlaceholderArticle(n int) lesson.Article {
	return lesson.Article{
		Title:               fmt.Sprintf("%s Article %d", PlaceholderPrefix, n),
		SummaryKorean:       "오늘은 이 기사를 준비하지 못했습니다.",
		SummaryEnglish:      "This article could not be generated for today's lesson.",
		KeyVocabulary:       []string{},
		KeyStructures:       []string{},
		KeyExpressions:      []string{},
		SimplifiedParagraph: "오늘은 지난 단어를 복습해 보세요.",
		DifficultyLevel:     lesson.DifficultyA2,
	}
}

func PlaceholderConversation() lesson.ConversationContent {
	return lesson.ConversationContent{
		TopicName:        PlaceholderPrefix + " Conversation Practice",
		Description:      "The conversation topic could not be generated for today's lesson.",
		KeyVocabulary:    []string{},
		SentencePatterns: []string{},
		SampleDialogue:   "A: 안녕하세요!\nB: 안녕하세요, 반가워요.",
		DifficultyLevel:  lesson.DifficultyA2,
	}
}

func IsPlaceholder(a lesson.Article) bool {
	return strings.HasPrefix(a.Title, PlaceholderPrefix)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeArticle(a lesson.Article) lesson.Article {
	return lesson.Article{
		Title:               strings.TrimSpace(a.Title),
		SummaryKorean:       strings.TrimSpace(a.SummaryKorean),
		SummaryEnglish:      strings.TrimSpace(a.SummaryEnglish),
		KeyVocabulary:       cleanList(a.KeyVocabulary),
		KeyStructures:       cleanList(a.KeyStructures),
		KeyExpressions:      cleanList(a.KeyExpressions),
		SimplifiedParagraph: strings.TrimSpace(a.SimplifiedParagraph),
		DifficultyLevel:     lesson.DifficultyA2,
	}
}

func normalizeConversation(c lesson.ConversationContent) lesson.ConversationContent {
	return lesson.ConversationContent{
		TopicName:        strings.TrimSpace(c.TopicName),
		Description:      strings.TrimSpace(c.Description),
		KeyVocabulary:    cleanList(c.KeyVocabulary),
		SentencePatterns: cleanList(c.SentencePatterns),
		SampleDialogue:   strings.TrimSpace(c.SampleDialogue),
		DifficultyLevel:  lesson.DifficultyA2,
	}
}

// fitArticles returns exactly lesson.ArticleCount articles: usable entries in
// order, then placeholders. It also reports how many slots were filled.
func fitArticles(in []lesson.Article) ([]lesson.Article, int) {
	out := make([]lesson.Article, 0, lesson.ArticleCount)
	for _, a := range in {
		if len(out) == lesson.ArticleCount {
			break
		}
		a = normalizeArticle(a)
		if a.Degenerate() {
			continue
		}
		out = append(out, a)
	}
	filled := 0
	for len(out) < lesson.ArticleCount {
		out = append(out, PlaceholderArticle(len(out)+1))
		filled++
	}
	return out, filled
}
