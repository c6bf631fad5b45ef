// Package config loads service settings from .env, an optional YAML file and
// the process environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultPath is the optional YAML settings file.
const DefaultPath = "config/app.yaml"

// Config is the complete service configuration.
type Config struct {
	TensorlakeAPIKey  string `yaml:"tensorlake_api_key"`
	TensorlakeBaseURL string `yaml:"tensorlake_base_url" validate:"required,url"`

	LLMProvider     string `yaml:"llm_provider" validate:"oneof=anthropic gemini"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model" validate:"required"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	GeminiModel     string `yaml:"gemini_model" validate:"required"`
	MaxTokens       int    `yaml:"max_tokens" validate:"min=256"`

	AppToken         string   `yaml:"app_token"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	Port             int      `yaml:"port" validate:"min=1,max=65535"`
	MaxUploadMB      int      `yaml:"max_upload_mb" validate:"min=1"`
	MaxParallel      int      `yaml:"max_parallel" validate:"min=1,max=16"`

	DatabaseURL    string        `yaml:"database_url"`
	ReportCacheDir string        `yaml:"report_cache_dir" validate:"required"`
	CacheTTL       time.Duration `yaml:"cache_ttl" validate:"min=0"`
	Retention      time.Duration `yaml:"report_retention" validate:"min=0"` // 0 keeps database rows forever
	PurgeSchedule  string        `yaml:"purge_schedule" validate:"required"`
	ArchiveBucket  string        `yaml:"archive_bucket"`
	AWSRegion      string        `yaml:"aws_region"`

	PromptsDir string `yaml:"prompts_dir"`
	LogLevel   string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string `yaml:"log_format" validate:"oneof=console json"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		TensorlakeBaseURL: "https://api.tensorlake.ai",
		LLMProvider:       "anthropic",
		AnthropicModel:    "claude-3-5-sonnet-latest",
		GeminiModel:       "gemini-2.0-flash",
		MaxTokens:         8192,
		CORSAllowOrigins:  []string{"*"},
		Port:              8080,
		MaxUploadMB:       25,
		MaxParallel:       4,
		ReportCacheDir:    "data/reports",
		CacheTTL:          7 * 24 * time.Hour,
		PurgeSchedule:     "@hourly",
		AWSRegion:         "ap-southeast-1",
		PromptsDir:        "resources",
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load reads .env (if present), then path (if present), then the
// environment, and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("CONFIG_PARSE_FAILED: %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("CONFIG_READ_FAILED: %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the struct tag rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("CONFIG_INVALID: %w", err)
	}
	return nil
}

// LLMKey returns the API key of the selected provider.
func (c *Config) LLMKey() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.AnthropicAPIKey
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"TENSORLAKE_API_KEY":  &c.TensorlakeAPIKey,
		"TENSORLAKE_BASE_URL": &c.TensorlakeBaseURL,
		"LLM_PROVIDER":        &c.LLMProvider,
		"ANTHROPIC_API_KEY":   &c.AnthropicAPIKey,
		"ANTHROPIC_MODEL":     &c.AnthropicModel,
		"GEMINI_API_KEY":      &c.GeminiAPIKey,
		"GEMINI_MODEL":        &c.GeminiModel,
		"APP_TOKEN":           &c.AppToken,
		"DATABASE_URL":        &c.DatabaseURL,
		"REPORT_CACHE_DIR":    &c.ReportCacheDir,
		"PURGE_SCHEDULE":      &c.PurgeSchedule,
		"ARCHIVE_BUCKET":      &c.ArchiveBucket,
		"AWS_REGION":          &c.AWSRegion,
		"PROMPTS_DIR":         &c.PromptsDir,
		"LOG_LEVEL":           &c.LogLevel,
		"LOG_FORMAT":          &c.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"PORT":          &c.Port,
		"MAX_UPLOAD_MB": &c.MaxUploadMB,
		"MAX_PARALLEL":  &c.MaxParallel,
		"MAX_TOKENS":    &c.MaxTokens,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CONFIG_INVALID: %s=%q is not an integer", key, v)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"CACHE_TTL":        &c.CacheTTL,
		"REPORT_RETENTION": &c.Retention,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CONFIG_INVALID: %s=%q: %w", key, v, err)
		}
		*dst = d
	}
	if v, ok := lookup("CORS_ALLOW_ORIGINS"); ok && v != "" {
		c.CORSAllowOrigins = splitList(v)
	}
	c.LLMProvider = strings.ToLower(c.LLMProvider)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
