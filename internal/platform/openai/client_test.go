package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

func outputBody(text string) map[string]any {
	return map[string]any{
		"output": []any{
			map[string]any{
				"type": "message",
				"role": "assistant",
				"content": []any{
					map[string]any{"type": "output_text", "text": text},
				},
			},
		},
	}
}

func newTestClient(t *testing.T, url string, retries int) Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{APIKey: "sk-test", BaseURL: url, MaxRetries: retries, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestGenerateJSONSendsStrictSchema(t *testing.T) {
	var got responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(outputBody(`{"topic_name":"주말 계획"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0).WithModel("gpt-4.1-mini")
	obj, err := c.GenerateJSON(context.Background(), "system", "user", "conversation_content", map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.Equal(t, "주말 계획", obj["topic_name"])

	assert.Equal(t, "gpt-4.1-mini", got.Model)
	require.NotNil(t, got.Text)
	assert.Equal(t, "json_schema", got.Text.Format["type"])
	assert.Equal(t, true, got.Text.Format["strict"])
	require.Len(t, got.Input, 2)
	assert.Equal(t, "system", got.Input[0].Role)
}

func TestRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(outputBody("제목"))
	}))
	defer srv.Close()

	text, err := newTestClient(t, srv.URL, 2).GenerateText(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "제목", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNoRetryOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 3).GenerateText(context.Background(), "s", "u")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRefusalIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": []any{map[string]any{
				"type": "message", "role": "assistant",
				"content": []any{map[string]any{"type": "refusal", "refusal": "no"}},
			}},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 0).GenerateText(context.Background(), "s", "u")
	require.ErrorContains(t, err, "refused")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(logger.Nop(), Config{})
	require.Error(t, err)
}
