package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/prompts"
	"github.com/guan-wang/guans-lala-land/internal/observability"
)

// ErrMalformed marks generative output that is empty or cannot be decoded.
var ErrMalformed = errors.New("malformed generative output")

// Text runs a plain-text persona.
func Text(ctx context.Context, p Provider, prompt prompts.Prompt) (string, error) {
	ctx, span := observability.StartSpan(ctx, "agent."+prompt.Name,
		attribute.String("agent.title", prompt.Title),
		attribute.String("agent.model", prompt.Model),
	)
	text, err := p.ForModel(prompt.Model).GenerateText(ctx, prompt.System, prompt.User)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%s: empty text: %w", prompt.Name, ErrMalformed)
	}
	observability.EndSpan(span, err)
	if err != nil {
		return "", err
	}
	return text, nil
}

// JSON runs a structured persona and decodes its object into T.
func JSON[T any](ctx context.Context, p Provider, prompt prompts.Prompt) (T, error) {
	var zero T
	if !prompt.Structured() {
		return zero, fmt.Errorf("%s: prompt has no schema", prompt.Name)
	}
	ctx, span := observability.StartSpan(ctx, "agent."+prompt.Name,
		attribute.String("agent.title", prompt.Title),
		attribute.String("agent.model", prompt.Model),
		attribute.String("agent.schema", prompt.SchemaName),
	)
	out, err := decodeJSON[T](ctx, p, prompt)
	observability.EndSpan(span, err)
	return out, err
}

func decodeJSON[T any](ctx context.Context, p Provider, prompt prompts.Prompt) (T, error) {
	var zero T
	obj, err := p.ForModel(prompt.Model).GenerateJSON(ctx, prompt.System, prompt.User, prompt.SchemaName, prompt.Schema)
	if err != nil {
		return zero, err
	}
	if len(obj) == 0 {
		return zero, fmt.Errorf("%s: empty object: %w", prompt.Name, ErrMalformed)
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return zero, fmt.Errorf("%s: re-encode: %w", prompt.Name, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("%s: decode %s: %v: %w", prompt.Name, prompt.SchemaName, err, ErrMalformed)
	}
	return out, nil
}
