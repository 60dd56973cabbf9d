package compose

import (
	"context"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/agent"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/prompts"
)

const (
	ArticleToolName      = "Article_Tutor"
	ConversationToolName = "Conversational_Tutor"
)

// Tools are the two content agents, exposed as zero-argument callables.
type Tools struct {
	Articles     *agent.Tool[lesson.ArticleContent]
	Conversation *agent.Tool[lesson.ConversationContent]
}

// NewTools binds both content personas for one composition. Neither persona
// receives a topic; each picks its own subject matter.
func NewTools(provider agent.Provider, reg *prompts.Registry, in prompts.Input) Tools {
	return Tools{
		Articles: agent.NewTool(ArticleToolName, func(ctx context.Context) (lesson.ArticleContent, error) {
			p, err := reg.Build(prompts.PromptArticleTutor, in)
			if err != nil {
				return lesson.ArticleContent{}, err
			}
			return agent.JSON[lesson.ArticleContent](ctx, provider, p)
		}),
		Conversation: agent.NewTool(ConversationToolName, func(ctx context.Context) (lesson.ConversationContent, error) {
			p, err := reg.Build(prompts.PromptConversationTutor, in)
			if err != nil {
				return lesson.ConversationContent{}, err
			}
			return agent.JSON[lesson.ConversationContent](ctx, provider, p)
		}),
	}
}
