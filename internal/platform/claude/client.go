package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/guan-wang/guans-lala-land/internal/platform/ctxutil"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
	"github.com/guan-wang/guans-lala-land/internal/platform/promptstyle"
)

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int64
	Timeout    time.Duration
	MaxRetries int
}

// Client generates text and schema-shaped JSON through the Anthropic Messages API.
type Client struct {
	log   *logger.Logger
	api   messagesAPI
	model string
	max   int64
}

type messagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	api := anthropic.NewClient(opts...)
	return newWithAPI(log, &api.Messages, cfg), nil
}

func newWithAPI(log *logger.Logger, api messagesAPI, cfg Config) *Client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	max := cfg.MaxTokens
	if max <= 0 {
		max = 4096
	}
	return &Client{
		log:   log.With("service", "ClaudeClient"),
		api:   api,
		model: model,
		max:   max,
	}
}

// WithModel returns a client bound to model; an empty model returns the receiver.
func (c *Client) WithModel(model string) *Client {
	model = strings.TrimSpace(model)
	if model == "" || model == c.model {
		return c
	}
	clone := *c
	clone.model = model
	return &clone
}

func (c *Client) Model() string { return c.model }

func (c *Client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	return c.complete(ctx, promptstyle.ApplySystem(system, "text"), user)
}

// GenerateJSON asks for a JSON object matching schema and decodes the first
// object found in the reply.
func (c *Client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, fmt.Errorf("schemaName required")
	}
	if schema == nil {
		return nil, fmt.Errorf("schema required")
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	prompt := fmt.Sprintf("%s\n\nOutput ONLY a valid JSON object named %q matching this exact JSON schema, no markdown, no explanations:\n%s",
		user, schemaName, string(schemaJSON))

	text, err := c.complete(ctx, promptstyle.ApplySystem(system, "json"), prompt)
	if err != nil {
		return nil, err
	}
	jsonStr, err := extractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("extract json for %s: %w", schemaName, err)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return obj, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.max,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	msg, err := c.api.New(ctxutil.Default(ctx), params)
	if err != nil {
		return "", fmt.Errorf("claude messages call: %w", err)
	}
	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	text := out.String()
	c.log.Debug("Claude call finished",
		"model", c.model,
		"run_id", ctxutil.RunID(ctx),
		"latency_ms", time.Since(start).Milliseconds(),
		"chars", len(text),
	)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from %s", c.model)
	}
	return text, nil
}

// extractJSON finds the outermost JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
