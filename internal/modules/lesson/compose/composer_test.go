package compose

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/agent"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/lessonid"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/prompts"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

var ts = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeGen struct {
	articles    map[string]any
	articlesErr error
	convo       map[string]any
	convoErr    error
	calls       map[string]*atomic.Int32
}

func newFakeGen() *fakeGen {
	return &fakeGen{calls: map[string]*atomic.Int32{
		"article_content":      {},
		"conversation_content": {},
	}}
}

func (f *fakeGen) GenerateText(context.Context, string, string) (string, error) {
	return "", errors.New("unexpected text call")
}

func (f *fakeGen) GenerateJSON(_ context.Context, _, _ string, schemaName string, _ map[string]any) (map[string]any, error) {
	f.calls[schemaName].Add(1)
	switch schemaName {
	case "article_content":
		return f.articles, f.articlesErr
	case "conversation_content":
		return f.convo, f.convoErr
	}
	return nil, errors.New("unknown schema")
}

func article(title string) map[string]any {
	return map[string]any{
		"title":                title,
		"summary_korean":       "요약",
		"summary_english":      "summary",
		"key_vocabulary":       []any{"날씨", " ", "봄"},
		"key_structures":       []any{"-고 싶다"},
		"key_expressions":      []any{"좋아요"},
		"simplified_paragraph": "봄이 왔어요.",
		"difficulty_level":     "B1",
	}
}

func conversation() map[string]any {
	return map[string]any{
		"topic_name":        "주말 계획",
		"description":       "Talking about weekend plans",
		"key_vocabulary":    []any{"주말", "영화"},
		"sentence_patterns": []any{"-(으)ㄹ 거예요"},
		"sample_dialogue":   "A: 주말에 뭐 할 거예요?\nB: 영화를 볼 거예요.",
		"difficulty_level":  "A2",
	}
}

func newComposer(t *testing.T, g agent.Generator) *Composer {
	t.Helper()
	reg, err := prompts.Default()
	require.NoError(t, err)
	return New(logger.Nop(), agent.Static(g), reg, lessonid.NewMemory()).WithClock(func() time.Time { return ts })
}

func TestComposeFillsMissingArticle(t *testing.T) {
	g := newFakeGen()
	g.articles = map[string]any{"articles": []any{article("봄 축제"), article("지하철 요금")}}
	g.convo = conversation()

	l, rep, err := newComposer(t, g).Compose(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Validate())

	require.Len(t, l.ArticleContent.Articles, 3)
	assert.Equal(t, "봄 축제", l.ArticleContent.Articles[0].Title)
	assert.Equal(t, "[Placeholder] Article 3", l.ArticleContent.Articles[2].Title)
	assert.True(t, IsPlaceholder(l.ArticleContent.Articles[2]))
	assert.Equal(t, 1, rep.ArticlePlaceholders)
	assert.False(t, rep.ConversationPlaceholder)

	assert.Equal(t, "lesson_20250101_120000", l.LessonID)
	assert.Equal(t, "2025-01-01", l.CreatedDate)
	assert.Equal(t, []string{"날씨", "봄"}, l.ArticleContent.Articles[0].KeyVocabulary)
	for _, a := range l.ArticleContent.Articles {
		assert.Equal(t, lesson.DifficultyA2, a.DifficultyLevel)
	}

	assert.Equal(t, int32(1), g.calls["article_content"].Load())
	assert.Equal(t, int32(1), g.calls["conversation_content"].Load())
}

func TestComposeDropsDegenerateAndExtras(t *testing.T) {
	g := newFakeGen()
	g.articles = map[string]any{"articles": []any{
		article("one"),
		map[string]any{"title": " ", "summary_korean": "", "summary_english": ""},
		article("two"), article("three"), article("four"),
	}}
	g.convo = conversation()

	l, rep, err := newComposer(t, g).Compose(context.Background())
	require.NoError(t, err)
	titles := []string{}
	for _, a := range l.ArticleContent.Articles {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"one", "two", "three"}, titles)
	assert.Zero(t, rep.ArticlePlaceholders)
}

func TestComposeSurvivesToolFailures(t *testing.T) {
	g := newFakeGen()
	g.articlesErr = errors.New("openai http 500")
	g.convo = map[string]any{"topic_name": "", "description": "", "sample_dialogue": ""}

	l, rep, err := newComposer(t, g).Compose(context.Background())
	require.NoError(t, err)
	require.Len(t, l.ArticleContent.Articles, 3)
	for i, a := range l.ArticleContent.Articles {
		assert.True(t, IsPlaceholder(a), i)
	}
	assert.True(t, strings.HasPrefix(l.ConversationContent.TopicName, PlaceholderPrefix))
	assert.True(t, rep.Degenerate())
	assert.Equal(t, 3, rep.ArticlePlaceholders)
	assert.True(t, rep.ConversationPlaceholder)
	assert.Len(t, rep.Warnings, 2)
}

func TestComposeUniqueIDsWithinSameSecond(t *testing.T) {
	g := newFakeGen()
	g.articles = map[string]any{"articles": []any{}}
	g.convo = conversation()
	c := newComposer(t, g)

	first, _, err := c.Compose(context.Background())
	require.NoError(t, err)
	second, _, err := c.Compose(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.LessonID, second.LessonID)
	assert.Equal(t, "lesson_20250101_120000_2", second.LessonID)
}

func TestComposeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newFakeGen()
	_, _, err := newComposer(t, g).Compose(ctx)
	require.Error(t, err)
	assert.True(t, lesson.IsKind(err, lesson.KindCanceled))
}

type brokenReserver struct{}

func (brokenReserver) Reserve(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestComposeReservationFailureStillComposes(t *testing.T) {
	reg, err := prompts.Default()
	require.NoError(t, err)
	g := newFakeGen()
	g.convo = conversation()
	c := New(logger.Nop(), agent.Static(g), reg, brokenReserver{}).WithClock(func() time.Time { return ts })

	l, _, err := c.Compose(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(l.LessonID, "lesson_20250101_120000_"))
	assert.Len(t, l.LessonID, len("lesson_20250101_120000_")+8)
}
