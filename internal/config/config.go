// Package config loads server configuration: defaults, then an optional YAML
// file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/maxpollack/Menu/internal/imagebudget"
	"github.com/maxpollack/Menu/internal/llm"
)

type Config struct {
	Env          string             `yaml:"env"`
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Collaborator llm.Config         `yaml:"collaborator"`
	Budget       imagebudget.Budget `yaml:"budget"`

	// MaxImagePixels bounds width*height of any image the server decodes.
	MaxImagePixels int `yaml:"max_image_pixels"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Port:           "3001",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			MaxUploadBytes: 20 << 20,
			ReadTimeout:    30 * time.Second,
			// Must outlive the collaborator timeout.
			WriteTimeout:  90 * time.Second,
			ShutdownGrace: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Collaborator:   llm.DefaultConfig(),
		Budget:         imagebudget.ServerBudget,
		MaxImagePixels: imagebudget.DefaultMaxPixels,
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if err := c.Budget.Validate(); err != nil {
		return fmt.Errorf("budget: %w", err)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("max_image_pixels must be positive")
	}
	if err := c.Collaborator.Validate(); err != nil {
		return fmt.Errorf("collaborator: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadFromFile reads YAML over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load reads .env outside production, then CONFIG_FILE if set, then the
// environment. The result is validated.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
	return load(os.LookupEnv)
}

type lookupFunc func(key string) (string, bool)

func load(lookup lookupFunc) (*Config, error) {
	cfg := DefaultConfig()

	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		fromFile, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fromFile
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup lookupFunc) error {
	env := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := env("APP_ENV"); ok {
		c.Env = v
	}
	if v, ok := env("PORT"); ok {
		c.Server.Port = v
	}
	if v, ok := env("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitCSV(v)
	}
	if v, ok := env("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := env("LOG_FORMAT"); ok {
		c.Log.Format = v
	}

	if v, ok := env("COLLABORATOR_PROVIDER"); ok {
		c.Collaborator.Provider = strings.ToLower(v)
	}
	if v, ok := env("COLLABORATOR_MODEL"); ok {
		c.Collaborator.Model = v
	}
	if v, ok := env("COLLABORATOR_BASE_URL"); ok {
		c.Collaborator.BaseURL = v
	}
	if v, ok := env("COLLABORATOR_API_KEY"); ok {
		c.Collaborator.APIKey = v
	} else if v, ok := env(providerKeyVar(c.Collaborator.Provider)); ok {
		c.Collaborator.APIKey = v
	}
	if c.Collaborator.Provider == llm.ProviderGemini && c.Collaborator.Model == "" {
		if v, ok := env("GEMINI_MODEL"); ok {
			c.Collaborator.Model = v
		}
	}

	var err error
	if v, ok := env("COLLABORATOR_TIMEOUT"); ok {
		if c.Collaborator.Timeout, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("COLLABORATOR_TIMEOUT: %w", err)
		}
	}
	if v, ok := env("COLLABORATOR_MAX_TOKENS"); ok {
		if c.Collaborator.MaxTokens, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("COLLABORATOR_MAX_TOKENS: %w", err)
		}
	}
	if v, ok := env("MAX_UPLOAD_BYTES"); ok {
		if c.Server.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
	}
	if v, ok := env("IMAGE_HARD_LIMIT_BYTES"); ok {
		if c.Budget.HardLimit, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("IMAGE_HARD_LIMIT_BYTES: %w", err)
		}
	}
	if v, ok := env("IMAGE_SAFETY_MARGIN_BYTES"); ok {
		if c.Budget.Margin, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("IMAGE_SAFETY_MARGIN_BYTES: %w", err)
		}
	}
	if v, ok := env("IMAGE_MAX_PIXELS"); ok {
		if c.MaxImagePixels, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("IMAGE_MAX_PIXELS: %w", err)
		}
	}
	return nil
}

func providerKeyVar(provider string) string {
	switch provider {
	case llm.ProviderGemini:
		return "GEMINI_API_KEY"
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
