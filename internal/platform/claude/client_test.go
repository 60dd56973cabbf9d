package claude

import (
	"context"
	"errors"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

type fakeMessages struct {
	reply string
	err   error
	last  anthropic.MessageNewParams
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.last = body
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{Content: []anthropic.ContentBlockUnion{{Type: "text", Text: f.reply}}}, nil
}

func TestGenerateJSONExtractsObject(t *testing.T) {
	api := &fakeMessages{reply: "Sure! ```json\n{\"topic_name\": \"카페\"}\n```"}
	c := newWithAPI(logger.Nop(), api, Config{Model: "claude-test"})

	obj, err := c.GenerateJSON(context.Background(), "sys", "user", "conversation_content", map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.Equal(t, "카페", obj["topic_name"])
	assert.Equal(t, anthropic.Model("claude-test"), api.last.Model)
	require.Len(t, api.last.System, 1)
	assert.Contains(t, api.last.System[0].Text, "sys")
}

func TestGenerateJSONNoObject(t *testing.T) {
	c := newWithAPI(logger.Nop(), &fakeMessages{reply: "no json here"}, Config{})
	_, err := c.GenerateJSON(context.Background(), "sys", "user", "x", map[string]any{})
	require.Error(t, err)
}

func TestGenerateTextErrors(t *testing.T) {
	c := newWithAPI(logger.Nop(), &fakeMessages{err: errors.New("overloaded")}, Config{})
	_, err := c.GenerateText(context.Background(), "sys", "user")
	require.ErrorContains(t, err, "overloaded")

	c = newWithAPI(logger.Nop(), &fakeMessages{reply: "  "}, Config{})
	_, err = c.GenerateText(context.Background(), "sys", "user")
	require.Error(t, err)
}

func TestWithModel(t *testing.T) {
	c := newWithAPI(logger.Nop(), &fakeMessages{}, Config{Model: "a"})
	assert.Same(t, c, c.WithModel(""))
	assert.Equal(t, "b", c.WithModel("b").Model())
	assert.Equal(t, "a", c.Model())
}
