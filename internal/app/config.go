package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/guan-wang/guans-lala-land/internal/data/db"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/persist"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	StoreNotion = "notion"
	StoreSQL    = "sql"
	StoreMemory = "memory"
)

// Config is the root service configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	LLM      LLMConfig      `yaml:"llm"`
	Notion   NotionConfig   `yaml:"notion"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
	Email    EmailConfig    `yaml:"email"`
	Store    StoreConfig    `yaml:"store"`
	Persist  PersistConfig  `yaml:"persist"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Temporal TemporalConfig `yaml:"temporal"`
	HTTP     HTTPConfig     `yaml:"http"`
	Otel     OtelConfig     `yaml:"otel"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"  env:"LOG_MODE"  env-default:"development"`
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

type LLMConfig struct {
	Provider   string        `yaml:"provider"    env:"LLM_PROVIDER"    env-default:"openai"`
	Timeout    time.Duration `yaml:"timeout"     env:"LLM_TIMEOUT"     env-default:"180s"`
	MaxRetries int           `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"2"`

	OpenAIAPIKey  string `yaml:"openai_api_key"  env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`
	OpenAIModel   string `yaml:"openai_model"    env:"OPENAI_MODEL"    env-default:"gpt-4o-mini"`

	AnthropicAPIKey    string `yaml:"anthropic_api_key"    env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL   string `yaml:"anthropic_base_url"   env:"ANTHROPIC_BASE_URL"`
	AnthropicModel     string `yaml:"anthropic_model"      env:"ANTHROPIC_MODEL"      env-default:"claude-sonnet-4-5"`
	AnthropicMaxTokens int64  `yaml:"anthropic_max_tokens" env:"ANTHROPIC_MAX_TOKENS" env-default:"8192"`

	// Per-persona model overrides, keyed by persona name.
	Models map[string]string `yaml:"models" env:"LLM_MODELS" env-separator:","`
}

type NotionConfig struct {
	Token      string        `yaml:"token"       env:"NOTION_TOKEN"`
	BaseURL    string        `yaml:"base_url"    env:"NOTION_BASE_URL"`
	Timeout    time.Duration `yaml:"timeout"     env:"NOTION_TIMEOUT"     env-default:"30s"`
	MaxRetries int           `yaml:"max_retries" env:"NOTION_MAX_RETRIES" env-default:"2"`
}

type SendGridConfig struct {
	APIKey   string        `yaml:"api_key"   env:"SENDGRID_API_KEY"`
	BaseURL  string        `yaml:"base_url"  env:"SENDGRID_BASE_URL"`
	Timeout  time.Duration `yaml:"timeout"   env:"SENDGRID_TIMEOUT"   env-default:"20s"`
	From     string        `yaml:"from"      env:"SENDGRID_FROM"      env-default:"gwang@geng.gg"`
	FromName string        `yaml:"from_name" env:"SENDGRID_FROM_NAME" env-default:"Korean Lesson Digest"`
}

type EmailConfig struct {
	Recipient string `yaml:"recipient" env:"EMAIL_RECIPIENT" env-default:"guan.wang.se@gmail.com"`
}

type StoreConfig struct {
	Backend   string `yaml:"backend"    env:"STORE_BACKEND"    env-default:"notion"`
	ParentRef string `yaml:"parent_ref" env:"STORE_PARENT_REF" env-default:"29664f58e96c80039c9dca04384d1a69"`
	Title     string `yaml:"title"      env:"STORE_TITLE"      env-default:"Language Learning Database"`
}

type PersistConfig struct {
	Mode     string `yaml:"mode"      env:"PERSIST_MODE"      env-default:"generative"`
	MaxItems int    `yaml:"max_items" env:"PERSIST_MAX_ITEMS" env-default:"10"`
}

type DatabaseConfig struct {
	Driver  string `yaml:"driver"  env:"DATABASE_DRIVER"  env-default:"sqlite"`
	DSN     string `yaml:"dsn"     env:"DATABASE_DSN"     env-default:"file:lessond.db"`
	Migrate bool   `yaml:"migrate" env:"DATABASE_MIGRATE" env-default:"true"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"     env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
	IDTTL    time.Duration `yaml:"id_ttl"   env:"REDIS_ID_TTL"   env-default:"720h"`
}

type TemporalConfig struct {
	Address               string        `yaml:"address"                 env:"TEMPORAL_ADDRESS"`
	Namespace             string        `yaml:"namespace"               env:"TEMPORAL_NAMESPACE"               env-default:"lessond"`
	TaskQueue             string        `yaml:"task_queue"              env:"TEMPORAL_TASK_QUEUE"              env-default:"lessond"`
	ClientCertPath        string        `yaml:"client_cert_path"        env:"TEMPORAL_CLIENT_CERT_PATH"`
	ClientKeyPath         string        `yaml:"client_key_path"         env:"TEMPORAL_CLIENT_KEY_PATH"`
	ClientCAPath          string        `yaml:"client_ca_path"          env:"TEMPORAL_CLIENT_CA_PATH"`
	AutoRegisterNamespace bool          `yaml:"auto_register_namespace" env:"TEMPORAL_AUTO_REGISTER_NAMESPACE" env-default:"false"`
	DialMaxWait           time.Duration `yaml:"dial_max_wait"           env:"TEMPORAL_DIAL_MAX_WAIT"           env-default:"60s"`
	WorkerConcurrency     int           `yaml:"worker_concurrency"      env:"WORKER_CONCURRENCY"               env-default:"4"`
}

type HTTPConfig struct {
	Addr        string `yaml:"addr"         env:"HTTP_ADDR"         env-default:":8080"`
	CORSOrigins string `yaml:"cors_origins" env:"HTTP_CORS_ORIGINS"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"      env:"OTEL_ENABLED"                env-default:"false"`
	ServiceName string  `yaml:"service_name" env:"OTEL_SERVICE_NAME"           env-default:"lessond"`
	Environment string  `yaml:"environment"  env:"OTEL_ENVIRONMENT"            env-default:"development"`
	Endpoint    string  `yaml:"endpoint"     env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `yaml:"insecure"     env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"false"`
	Headers     string  `yaml:"headers"      env:"OTEL_EXPORTER_OTLP_HEADERS"`
	SampleRatio float64 `yaml:"sample_ratio" env:"OTEL_SAMPLE_RATIO"           env-default:"1"`
}

// LoadConfig reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > env-default tags. The file is CONFIG_PATH, falling
// back to ./config.yaml; a missing fallback file means ENV + defaults only.
func LoadConfig() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field rules and normalizes enum values.
func (c *Config) Validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if strings.TrimSpace(c.LLM.OpenAIAPIKey) == "" {
			return fmt.Errorf("llm.openai_api_key is required for provider %q", c.LLM.Provider)
		}
	case ProviderAnthropic:
		if strings.TrimSpace(c.LLM.AnthropicAPIKey) == "" {
			return fmt.Errorf("llm.anthropic_api_key is required for provider %q", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("llm.provider must be %q or %q (got %q)", ProviderOpenAI, ProviderAnthropic, c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0 (got %d)", c.LLM.MaxRetries)
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case StoreNotion:
		if strings.TrimSpace(c.Notion.Token) == "" {
			return fmt.Errorf("notion.token is required for store backend %q", StoreNotion)
		}
		if strings.TrimSpace(c.Store.ParentRef) == "" {
			return fmt.Errorf("store.parent_ref is required for store backend %q", StoreNotion)
		}
	case StoreSQL, StoreMemory:
	default:
		return fmt.Errorf("store.backend must be one of notion, sql, memory (got %q)", c.Store.Backend)
	}

	c.Persist.Mode = strings.ToLower(strings.TrimSpace(c.Persist.Mode))
	if c.Persist.Mode != persist.ModeGenerative && c.Persist.Mode != persist.ModeRule {
		return fmt.Errorf("persist.mode must be %q or %q (got %q)", persist.ModeGenerative, persist.ModeRule, c.Persist.Mode)
	}
	if c.Persist.MaxItems < 1 || c.Persist.MaxItems > 10 {
		return fmt.Errorf("persist.max_items must be in [1, 10] (got %d)", c.Persist.MaxItems)
	}

	if strings.TrimSpace(c.SendGrid.APIKey) == "" {
		return fmt.Errorf("sendgrid.api_key is required")
	}
	if !strings.Contains(c.Email.Recipient, "@") {
		return fmt.Errorf("email.recipient must be an email address")
	}
	if !strings.Contains(c.SendGrid.From, "@") {
		return fmt.Errorf("sendgrid.from must be an email address")
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver != db.DriverPostgres && c.Database.Driver != db.DriverSQLite {
		return fmt.Errorf("database.driver must be %q or %q (got %q)", db.DriverPostgres, db.DriverSQLite, c.Database.Driver)
	}
	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		return fmt.Errorf("otel.sample_ratio must be in [0, 1] (got %v)", c.Otel.SampleRatio)
	}
	return nil
}

func (c *Config) corsOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.HTTP.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
