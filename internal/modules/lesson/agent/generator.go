package agent

import (
	"context"

	"github.com/guan-wang/guans-lala-land/internal/platform/claude"
	"github.com/guan-wang/guans-lala-land/internal/platform/openai"
)

// Generator is the opaque generative capability every agent runs on.
type Generator interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

// Provider hands out a Generator bound to a model. An empty model selects the
// provider default.
type Provider interface {
	ForModel(model string) Generator
}

type ProviderFunc func(model string) Generator

func (f ProviderFunc) ForModel(model string) Generator { return f(model) }

func OpenAI(c openai.Client) Provider {
	return ProviderFunc(func(model string) Generator { return c.WithModel(model) })
}

func Claude(c *claude.Client) Provider {
	return ProviderFunc(func(model string) Generator { return c.WithModel(model) })
}

// Static ignores the model and always returns g.
func Static(g Generator) Provider {
	return ProviderFunc(func(string) Generator { return g })
}
