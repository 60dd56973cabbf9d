package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/agent"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/lessonid"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/prompts"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

// Report describes what the composer had to substitute.
type Report struct {
	ArticlePlaceholders     int      `json:"article_placeholders"`
	ConversationPlaceholder bool     `json:"conversation_placeholder"`
	Warnings                []string `json:"warnings,omitempty"`
}

// Degenerate reports whether any section was substituted.
func (r Report) Degenerate() bool {
	return r.ArticlePlaceholders > 0 || r.ConversationPlaceholder
}

type Composer struct {
	log      *logger.Logger
	provider agent.Provider
	reg      *prompts.Registry
	ids      lessonid.Reserver
	now      func() time.Time
}

func New(log *logger.Logger, provider agent.Provider, reg *prompts.Registry, ids lessonid.Reserver) *Composer {
	if ids == nil {
		ids = lessonid.NewMemory()
	}
	return &Composer{
		log:      log.With("service", "Composer"),
		provider: provider,
		reg:      reg,
		ids:      ids,
		now:      time.Now,
	}
}

// WithClock overrides the composition clock.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	clone := *c
	clone.now = now
	return &clone
}

// Compose produces a Lesson with exactly three articles and one conversation.
// Tool failures are absorbed as placeholders; only cancellation returns an error.
func (c *Composer) Compose(ctx context.Context) (lesson.Lesson, Report, error) {
	ts := c.now()
	tools := NewTools(c.provider, c.reg, prompts.Input{CurrentDate: lesson.FormatDate(ts)})
	return c.ComposeWith(ctx, ts, tools)
}

// ComposeWith runs the supplied tools once each, concurrently.
func (c *Composer) ComposeWith(ctx context.Context, ts time.Time, tools Tools) (lesson.Lesson, Report, error) {
	var (
		articles   lesson.ArticleContent
		articleErr error
		convo      lesson.ConversationContent
		convoErr   error
	)
	var g errgroup.Group
	g.Go(func() error {
		articles, articleErr = tools.Articles.Call(ctx)
		return nil
	})
	g.Go(func() error {
		convo, convoErr = tools.Conversation.Call(ctx)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return lesson.Lesson{}, Report{}, lesson.NewStageError(lesson.StageCompose, lesson.KindCanceled, err)
	}

	var rep Report
	if articleErr != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %v", tools.Articles.Name, articleErr))
		c.log.Warn("article tool failed; using placeholders", "error", articleErr)
	}
	fitted, filled := fitArticles(articles.Articles)
	rep.ArticlePlaceholders = filled
	if filled > 0 && articleErr == nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %d usable articles", tools.Articles.Name, lesson.ArticleCount-filled))
	}

	conversation := normalizeConversation(convo)
	if convoErr != nil || conversation.Degenerate() {
		if convoErr != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %v", tools.Conversation.Name, convoErr))
			c.log.Warn("conversation tool failed; using placeholder", "error", convoErr)
		} else {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: degenerate conversation", tools.Conversation.Name))
		}
		conversation = PlaceholderConversation()
		rep.ConversationPlaceholder = true
	}

	l := lesson.Lesson{
		LessonID:            c.reserveID(ctx, ts),
		CreatedDate:         lesson.FormatDate(ts),
		ArticleContent:      lesson.ArticleContent{Articles: fitted},
		ConversationContent: conversation,
	}
	c.log.Info("lesson composed",
		"lesson_id", l.LessonID,
		"article_placeholders", rep.ArticlePlaceholders,
		"conversation_placeholder", rep.ConversationPlaceholder,
		"topic", conversation.TopicName,
	)
	return l, rep, nil
}

func (c *Composer) reserveID(ctx context.Context, ts time.Time) string {
	id, err := lessonid.Next(ctx, c.ids, ts)
	if err == nil {
		return id
	}
	fallback := fmt.Sprintf("%s_%s", lesson.FormatID(ts), uuid.NewString()[:8])
	c.log.Warn("lesson id reservation failed; using random suffix", "error", err, "lesson_id", fallback)
	return fallback
}
