package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NOTION_TOKEN", "secret_notion")
	t.Setenv("SENDGRID_API_KEY", "SG.test")
}

func TestLoadConfigDefaults(t *testing.T) {
	validEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, StoreNotion, cfg.Store.Backend)
	assert.Equal(t, "29664f58e96c80039c9dca04384d1a69", cfg.Store.ParentRef)
	assert.Equal(t, "guan.wang.se@gmail.com", cfg.Email.Recipient)
	assert.Equal(t, "gwang@geng.gg", cfg.SendGrid.From)
	assert.Equal(t, 10, cfg.Persist.MaxItems)
	assert.Equal(t, "generative", cfg.Persist.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadConfigFromYAML(t *testing.T) {
	validEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: anthropic
  anthropic_api_key: sk-ant
  models:
    article_tutor: claude-opus-4-1
store:
  backend: sql
persist:
  mode: rule
  max_items: 5
http:
  cors_origins: "https://a.example.com, https://b.example.com"
`), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PERSIST_MAX_ITEMS", "7")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-opus-4-1", cfg.LLM.Models["article_tutor"])
	assert.Equal(t, StoreSQL, cfg.Store.Backend)
	assert.Equal(t, "rule", cfg.Persist.Mode)
	assert.Equal(t, 7, cfg.Persist.MaxItems)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.corsOrigins())
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "nope.yaml")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			LLM:      LLMConfig{Provider: "openai", OpenAIAPIKey: "k"},
			Notion:   NotionConfig{Token: "t"},
			SendGrid: SendGridConfig{APIKey: "sg", From: "gwang@geng.gg"},
			Email:    EmailConfig{Recipient: "a@b.c"},
			Store:    StoreConfig{Backend: "notion", ParentRef: "p"},
			Persist:  PersistConfig{Mode: "generative", MaxItems: 10},
			Database: DatabaseConfig{Driver: "sqlite"},
			Otel:     OtelConfig{SampleRatio: 1},
		}
	}
	ok := base()
	require.NoError(t, ok.Validate())

	cases := map[string]func(*Config){
		"llm.provider":        func(c *Config) { c.LLM.Provider = "cohere" },
		"openai_api_key":      func(c *Config) { c.LLM.OpenAIAPIKey = "" },
		"anthropic_api_key":   func(c *Config) { c.LLM.Provider = "anthropic" },
		"notion.token":        func(c *Config) { c.Notion.Token = "" },
		"store.backend":       func(c *Config) { c.Store.Backend = "airtable" },
		"persist.mode":        func(c *Config) { c.Persist.Mode = "random" },
		"persist.max_items":   func(c *Config) { c.Persist.MaxItems = 11 },
		"sendgrid.api_key":    func(c *Config) { c.SendGrid.APIKey = "" },
		"email.recipient":     func(c *Config) { c.Email.Recipient = "nobody" },
		"database.driver":     func(c *Config) { c.Database.Driver = "mysql" },
		"otel.sample_ratio":   func(c *Config) { c.Otel.SampleRatio = 2 },
		"llm.max_retries":     func(c *Config) { c.LLM.MaxRetries = -1 },
	}
	for want, mutate := range cases {
		c := base()
		mutate(&c)
		assert.ErrorContains(t, c.Validate(), want, want)
	}

	sqlStore := base()
	sqlStore.Store.Backend = " SQL "
	sqlStore.Notion.Token = ""
	require.NoError(t, sqlStore.Validate())
	assert.Equal(t, StoreSQL, sqlStore.Store.Backend)
}
