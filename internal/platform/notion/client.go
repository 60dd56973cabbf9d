package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/guan-wang/guans-lala-land/internal/platform/ctxutil"
	"github.com/guan-wang/guans-lala-land/internal/platform/httpx"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

const defaultVersion = "2022-06-28"

type Client interface {
	CreateDatabase(ctx context.Context, req CreateDatabaseRequest) (*Object, error)
	CreatePage(ctx context.Context, req CreatePageRequest) (*Object, error)
}

type Config struct {
	Token      string
	BaseURL    string
	Version    string
	Timeout    time.Duration
	MaxRetries int
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("missing NOTION_TOKEN")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.notion.com"
	}
	if strings.TrimSpace(cfg.Version) == "" {
		cfg.Version = defaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "NotionClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// --- request/response types ---

type Parent struct {
	Type       string `json:"type"`
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
}

func PageParent(id string) Parent     { return Parent{Type: "page_id", PageID: id} }
func DatabaseParent(id string) Parent { return Parent{Type: "database_id", DatabaseID: id} }

type TextContent struct {
	Content string `json:"content"`
}

type RichText struct {
	Type string      `json:"type"`
	Text TextContent `json:"text"`
}

func Text(s string) []RichText {
	return []RichText{{Type: "text", Text: TextContent{Content: s}}}
}

type SelectOption struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// PropertySchema declares one database column. Exactly one field is set.
type PropertySchema struct {
	Title    *struct{}     `json:"title,omitempty"`
	RichText *struct{}     `json:"rich_text,omitempty"`
	Select   *SelectSchema `json:"select,omitempty"`
	Number   *NumberSchema `json:"number,omitempty"`
}

type SelectSchema struct {
	Options []SelectOption `json:"options"`
}

type NumberSchema struct {
	Format string `json:"format"`
}

// PropertyValue is one cell of a page. Exactly one field is set.
type PropertyValue struct {
	Title    []RichText    `json:"title,omitempty"`
	RichText []RichText    `json:"rich_text,omitempty"`
	Select   *SelectOption `json:"select,omitempty"`
	Number   *float64      `json:"number,omitempty"`
}

type CreateDatabaseRequest struct {
	Parent     Parent                    `json:"parent"`
	Title      []RichText                `json:"title"`
	Properties map[string]PropertySchema `json:"properties"`
}

type CreatePageRequest struct {
	Parent     Parent                   `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
}

type Object struct {
	Object string `json:"object"`
	ID     string `json:"id"`
	URL    string `json:"url,omitempty"`
}

// CreateDatabase is sent exactly once; a failed creation is never retried.
func (c *client) CreateDatabase(ctx context.Context, req CreateDatabaseRequest) (*Object, error) {
	if strings.TrimSpace(req.Parent.PageID) == "" {
		return nil, fmt.Errorf("notion: parent page id required")
	}
	var out Object
	if err := c.do(ctx, http.MethodPost, "/v1/databases", req, &out, 0); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("notion: database created without id")
	}
	return &out, nil
}

func (c *client) CreatePage(ctx context.Context, req CreatePageRequest) (*Object, error) {
	if strings.TrimSpace(req.Parent.DatabaseID) == "" {
		return nil, fmt.Errorf("notion: parent database id required")
	}
	var out Object
	if err := c.do(ctx, http.MethodPost, "/v1/pages", req, &out, c.cfg.MaxRetries); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------- HTTP / retry helpers ----------

type errorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "notion: <nil error>"
	}
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("notion http %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > 2000 {
		body = body[:2000] + "..."
	}
	return fmt.Sprintf("notion http %d: %s", e.StatusCode, body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, method, path string, body any, out any, maxRetries int) error {
	ctx = ctxutil.Default(ctx)
	backoff := 1 * time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out != nil {
				if uErr := json.Unmarshal(raw, out); uErr != nil {
					return fmt.Errorf("notion decode error: %w", uErr)
				}
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == maxRetries {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("Notion request retrying",
			"path", path,
			"run_id", ctxutil.RunID(ctx),
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
	return errors.New("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Notion-Version", c.cfg.Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			he.Code = er.Code
			he.Message = er.Message
		}
		return resp, raw, he
	}
	return resp, raw, nil
}
