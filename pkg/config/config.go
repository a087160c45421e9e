package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Provider identifies an AI provider variant.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// PromptStyle selects how much constraint prose goes into generation prompts.
type PromptStyle string

const (
	PromptStyleSimple   PromptStyle = "simple"
	PromptStyleEnhanced PromptStyle = "enhanced"
)

// Config holds all configuration for ekaya-faker.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables.
//
// A Config is built once at process start and treated as read-only by every
// component it is handed to.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	AI         AIConfig         `yaml:"ai"`
	Generation GenerationConfig `yaml:"generation"`
	Database   DatabaseConfig   `yaml:"database"`
}

// AIConfig selects and authenticates the LLM provider.
type AIConfig struct {
	Provider Provider `yaml:"provider" env:"FAKER_AI_PROVIDER" env-default:"openai"`
	APIKey   string   `yaml:"-" env:"FAKER_AI_API_KEY"` // Secret - not in YAML
	Model    string   `yaml:"model" env:"FAKER_AI_MODEL" env-default:"gpt-3.5-turbo"`

	// BaseURL overrides the provider's public endpoint (proxies, tests).
	BaseURL string `yaml:"base_url" env:"FAKER_AI_BASE_URL" env-default:""`

	// Timeout bounds a single provider round-trip. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout" env:"FAKER_AI_TIMEOUT" env-default:"0s"`
}

// GenerationConfig controls prompt construction and write-time behavior.
type GenerationConfig struct {
	DefaultLocale string `yaml:"default_locale" env:"FAKER_DEFAULT_LOCALE" env-default:"en"`

	// UseValidations includes enum/validation constraints in prompts and runs
	// model validation on every row before it is written.
	UseValidations bool `yaml:"use_validations" env:"FAKER_USE_VALIDATIONS"` // default true, see Default

	PromptStyle PromptStyle `yaml:"prompt_style" env:"FAKER_PROMPT_STYLE" env-default:"enhanced"`

	// IncludeTimestamps asks the model for created_at/updated_at values
	// instead of stamping them at write time.
	IncludeTimestamps bool `yaml:"include_timestamps" env:"FAKER_INCLUDE_TIMESTAMPS" env-default:"false"`

	// ModelsFile is an optional YAML file declaring enums, validators and
	// associations per table.
	ModelsFile string `yaml:"models_file" env:"FAKER_MODELS_FILE" env-default:""`
}

// UseEnhancedPrompt reports whether prompts should carry constraint prose.
func (g GenerationConfig) UseEnhancedPrompt() bool {
	return g.UseValidations && g.PromptStyle == PromptStyleEnhanced
}

// DatabaseConfig describes the target datasource.
type DatabaseConfig struct {
	Type     string `yaml:"type" env:"FAKER_DB_TYPE" env-default:"postgres"` // postgres, mysql, sqlite, sqlserver
	Host     string `yaml:"host" env:"FAKER_DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"FAKER_DB_PORT" env-default:"0"` // 0 = dialect default
	User     string `yaml:"user" env:"FAKER_DB_USER" env-default:""`
	Password string `yaml:"-" env:"FAKER_DB_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"FAKER_DB_NAME" env-default:""`
	Schema   string `yaml:"schema" env:"FAKER_DB_SCHEMA" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"FAKER_DB_SSLMODE" env-default:"disable"`

	// Path is the database file for sqlite (":memory:" allowed).
	Path string `yaml:"path" env:"FAKER_DB_PATH" env-default:""`

	// DockerHost replaces a loopback Host when the CLI runs inside Docker.
	DockerHost string `yaml:"docker_host" env:"FAKER_DOCKER_HOST" env-default:"host.docker.internal"`
}

// inDocker reports whether the process runs inside a Docker container, based
// on the presence of /.dockerenv.
var inDocker = sync.OnceValue(func() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
})

// NetworkHost returns the host to dial. Inside Docker a loopback Host maps to
// DockerHost so a containerised CLI reaches a database on the host machine.
func (c DatabaseConfig) NetworkHost() string {
	if !inDocker() || !isLoopback(c.Host) {
		return c.Host
	}
	if c.DockerHost == "" {
		return "host.docker.internal"
	}
	return c.DockerHost
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Env:      "local",
		LogLevel: "info",
		AI: AIConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-3.5-turbo",
		},
		Generation: GenerationConfig{
			DefaultLocale:  "en",
			UseValidations: true,
			PromptStyle:    PromptStyleEnhanced,
		},
		Database: DatabaseConfig{
			Type:    "postgres",
			Host:    "localhost",
			SSLMode: "disable",
		},
	}
}

// Load reads configuration from the YAML file at path with environment
// variable overrides. A missing file is not an error: configuration then
// comes from the environment and defaults alone.
func Load(path, version string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.Version = version

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks values that cleanenv cannot express as tags.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported ai provider %q (expected openai or gemini)", c.AI.Provider)
	}

	switch c.Generation.PromptStyle {
	case PromptStyleSimple, PromptStyleEnhanced:
	default:
		return fmt.Errorf("unknown prompt_style %q (expected simple or enhanced)", c.Generation.PromptStyle)
	}

	if c.Database.Type == "" {
		return errors.New("database type is required")
	}
	if c.Database.Type == "sqlite" && c.Database.Path == "" {
		return errors.New("database path is required for sqlite")
	}
	if c.AI.Timeout < 0 {
		return errors.New("ai timeout must not be negative")
	}

	return nil
}
