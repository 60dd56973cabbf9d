package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/agent"
	"github.com/guan-wang/guans-lala-land/internal/platform/claude"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
	"github.com/guan-wang/guans-lala-land/internal/platform/notion"
	"github.com/guan-wang/guans-lala-land/internal/platform/openai"
	"github.com/guan-wang/guans-lala-land/internal/platform/redis"
	"github.com/guan-wang/guans-lala-land/internal/platform/sendgrid"
	"github.com/guan-wang/guans-lala-land/internal/temporalx"
)

type Clients struct {
	Provider agent.Provider
	Notion   notion.Client
	SendGrid sendgrid.Client
	Redis    *goredis.Client
	Temporal temporalsdkclient.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *Config, withTemporal bool) (Clients, error) {
	var out Clients

	provider, err := wireProvider(log, cfg.LLM)
	if err != nil {
		return out, err
	}
	out.Provider = provider

	if cfg.Store.Backend == StoreNotion {
		nc, err := notion.New(log, notion.Config{
			Token:      cfg.Notion.Token,
			BaseURL:    cfg.Notion.BaseURL,
			Timeout:    cfg.Notion.Timeout,
			MaxRetries: cfg.Notion.MaxRetries,
		})
		if err != nil {
			return out, fmt.Errorf("init notion: %w", err)
		}
		out.Notion = nc
	}

	sg, err := sendgrid.New(log, sendgrid.Config{
		APIKey:           cfg.SendGrid.APIKey,
		BaseURL:          cfg.SendGrid.BaseURL,
		DefaultFromEmail: cfg.SendGrid.From,
		DefaultFromName:  cfg.SendGrid.FromName,
		Timeout:          cfg.SendGrid.Timeout,
		MaxRetries:       0,
	})
	if err != nil {
		return out, fmt.Errorf("init sendgrid: %w", err)
	}
	out.SendGrid = sg

	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err := redis.New(ctx, log, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return out, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
	}

	if withTemporal {
		tc, err := temporalx.NewClient(log, temporalConfig(cfg))
		if err != nil {
			return out, fmt.Errorf("init temporal: %w", err)
		}
		out.Temporal = tc
	}
	return out, nil
}

func wireProvider(log *logger.Logger, cfg LLMConfig) (agent.Provider, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		c, err := claude.NewClient(log, claude.Config{
			APIKey:     cfg.AnthropicAPIKey,
			BaseURL:    cfg.AnthropicBaseURL,
			Model:      cfg.AnthropicModel,
			MaxTokens:  cfg.AnthropicMaxTokens,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("init anthropic: %w", err)
		}
		return agent.Claude(c), nil
	default:
		c, err := openai.NewClient(log, openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("init openai: %w", err)
		}
		return agent.OpenAI(c), nil
	}
}

func temporalConfig(cfg *Config) temporalx.Config {
	return temporalx.Config{
		Address:               cfg.Temporal.Address,
		Namespace:             cfg.Temporal.Namespace,
		TaskQueue:             cfg.Temporal.TaskQueue,
		ClientCertPath:        cfg.Temporal.ClientCertPath,
		ClientKeyPath:         cfg.Temporal.ClientKeyPath,
		ClientCAPath:          cfg.Temporal.ClientCAPath,
		AutoRegisterNamespace: cfg.Temporal.AutoRegisterNamespace,
		DialMaxWait:           cfg.Temporal.DialMaxWait,
		WorkerConcurrency:     cfg.Temporal.WorkerConcurrency,
	}
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
}
