package lesson

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DifficultyA2 is the only level this pipeline produces content for.
const DifficultyA2 = "A2"

// ArticleCount is the fixed number of articles in every lesson.
const ArticleCount = 3

const (
	idLayout   = "20060102_150405"
	dateLayout = "2006-01-02"
	idPrefix   = "lesson_"
)

type Article struct {
	Title               string   `json:"title"`
	SummaryKorean       string   `json:"summary_korean"`
	SummaryEnglish      string   `json:"summary_english"`
	KeyVocabulary       []string `json:"key_vocabulary"`
	KeyStructures       []string `json:"key_structures"`
	KeyExpressions      []string `json:"key_expressions"`
	SimplifiedParagraph string   `json:"simplified_paragraph"`
	DifficultyLevel     string   `json:"difficulty_level"`
}

// Degenerate reports whether the article carries no usable text.
func (a Article) Degenerate() bool {
	return strings.TrimSpace(a.Title) == "" &&
		strings.TrimSpace(a.SummaryKorean) == "" &&
		strings.TrimSpace(a.SummaryEnglish) == ""
}

type ArticleContent struct {
	Articles []Article `json:"articles"`
}

type ConversationContent struct {
	TopicName        string   `json:"topic_name"`
	Description      string   `json:"description"`
	KeyVocabulary    []string `json:"key_vocabulary"`
	SentencePatterns []string `json:"sentence_patterns"`
	SampleDialogue   string   `json:"sample_dialogue"`
	DifficultyLevel  string   `json:"difficulty_level"`
}

func (c ConversationContent) Degenerate() bool {
	return strings.TrimSpace(c.TopicName) == "" &&
		strings.TrimSpace(c.Description) == "" &&
		strings.TrimSpace(c.SampleDialogue) == ""
}

// Lesson is the root value produced by the composer. Downstream stages receive
// it by value and never modify it.
type Lesson struct {
	LessonID            string              `json:"lesson_id"`
	CreatedDate         string              `json:"created_date"`
	ArticleContent      ArticleContent      `json:"article_content"`
	ConversationContent ConversationContent `json:"conversation_content"`
}

// Validate checks the shape invariants of a composed lesson.
func (l Lesson) Validate() error {
	if !strings.HasPrefix(l.LessonID, idPrefix) {
		return fmt.Errorf("lesson id %q missing %q prefix", l.LessonID, idPrefix)
	}
	if strings.TrimSpace(l.CreatedDate) == "" {
		return fmt.Errorf("lesson %s missing created_date", l.LessonID)
	}
	if n := len(l.ArticleContent.Articles); n != ArticleCount {
		return fmt.Errorf("lesson %s has %d articles, want %d", l.LessonID, n, ArticleCount)
	}
	return nil
}

// Marshal serializes the lesson as the handoff payload.
func (l Lesson) Marshal() ([]byte, error) {
	return json.Marshal(l)
}

func Unmarshal(b []byte) (Lesson, error) {
	var l Lesson
	if err := json.Unmarshal(b, &l); err != nil {
		return Lesson{}, fmt.Errorf("decode lesson: %w", err)
	}
	return l, nil
}

// FormatID renders the base lesson identifier for t.
func FormatID(t time.Time) string {
	return idPrefix + t.Format(idLayout)
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
