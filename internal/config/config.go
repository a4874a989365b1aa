// Package config loads and validates all runtime configuration for the
// hackstack backend.
//
// Configuration is read from environment variables (preferred for containers),
// from a .env secrets file in the working directory, or from a config.yaml
// file. Host environment variables take precedence over both files.
//
// Vendor API keys are deliberately not part of Config: the credential
// resolver reads them on every call so that /api/debug always reflects the
// live environment. Config itself is immutable after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config is the top-level configuration container.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Default: 8000.
	Port int

	// LogLevel controls the minimum log level. One of: debug, info, warn, error.
	// Forced to "debug" when Debug is set.
	LogLevel string

	// LogFormat selects the slog handler: "json" (default) or "text".
	LogFormat string

	// Debug enables verbose logging and source locations in log records.
	Debug bool

	// ForceMock routes every vendor operation to the mock generator, even when
	// full credentials are present. Accepts true/1/yes.
	ForceMock bool

	// EnvFile is the secrets file consulted when classifying where a vendor
	// credential came from. Default: ".env".
	EnvFile string

	// DebugConfigPath points at the YAML catalogue of services, vendors and
	// endpoint sections. Empty means: search the well-known locations, then
	// fall back to the built-in catalogue.
	DebugConfigPath string

	// DataPath is the business registry JSON file. Empty uses the embedded sample.
	DataPath string

	// VendorTimeout bounds a single live vendor call. Default: 8s.
	VendorTimeout time.Duration

	// HealthTimeout bounds a single service health probe. Default: 3s.
	HealthTimeout time.Duration

	// CORSOrigins is the list of allowed CORS origins.
	CORSOrigins []string

	// MockSeed seeds the mock generator. 0 picks a random seed.
	MockSeed uint64

	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	LlamaCloud LlamaCloudConfig
	Weaviate   WeaviateConfig
}

// OpenAIConfig holds non-secret OpenAI settings.
type OpenAIConfig struct {
	// BaseURL overrides the API endpoint. Useful for local mocks.
	BaseURL string
	// Model is the chat model used for the analyze operation.
	Model string
}

// AnthropicConfig holds non-secret Anthropic settings.
type AnthropicConfig struct {
	BaseURL string
	Model   string
}

// LlamaCloudConfig holds non-secret LlamaCloud settings.
type LlamaCloudConfig struct {
	// BaseURL is the LlamaCloud API root. Default: https://api.cloud.llamaindex.ai
	BaseURL string
	// PipelineID is the default retrieval pipeline for the query operation.
	PipelineID string
}

// WeaviateConfig holds non-secret Weaviate settings. The cluster URL itself
// is a credential (WEAVIATE_URL) and is read by the resolver.
type WeaviateConfig struct {
	// Class is the collection queried by similarity_search.
	Class string
}

// Load reads configuration from environment variables, the .env file and
// (optionally) config.yaml in the current working directory.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// ── Defaults ──────────────────────────────────────────────────────────────
	v.SetDefault("PORT", 8000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DEBUG", false)
	v.SetDefault("FORCE_MOCK", "")
	v.SetDefault("VENDOR_TIMEOUT", "8s")
	v.SetDefault("HEALTH_TIMEOUT", "3s")
	v.SetDefault("CORS_ORIGINS", []string{
		"http://localhost:4321",
		"http://localhost:3000",
		"http://frontend:4321",
	})
	v.SetDefault("MOCK_SEED", 0)
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest")
	v.SetDefault("LLAMA_CLOUD_BASE_URL", "https://api.cloud.llamaindex.ai")
	v.SetDefault("WEAVIATE_CLASS", "LegacyBusiness")

	cfg := &Config{
		Port:            v.GetInt("PORT"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		Debug:           ParseBool(v.GetString("DEBUG")),
		ForceMock:       ParseBool(v.GetString("FORCE_MOCK")),
		EnvFile:         envFile,
		DebugConfigPath: v.GetString("DEBUG_CONFIG"),
		DataPath:        v.GetString("DATA_PATH"),
		VendorTimeout:   v.GetDuration("VENDOR_TIMEOUT"),
		HealthTimeout:   v.GetDuration("HEALTH_TIMEOUT"),
		CORSOrigins:     v.GetStringSlice("CORS_ORIGINS"),
		MockSeed:        v.GetUint64("MOCK_SEED"),

		OpenAI: OpenAIConfig{
			BaseURL: v.GetString("OPENAI_BASE_URL"),
			Model:   v.GetString("OPENAI_MODEL"),
		},
		Anthropic: AnthropicConfig{
			BaseURL: v.GetString("ANTHROPIC_BASE_URL"),
			Model:   v.GetString("ANTHROPIC_MODEL"),
		},
		LlamaCloud: LlamaCloudConfig{
			BaseURL:    v.GetString("LLAMA_CLOUD_BASE_URL"),
			PipelineID: v.GetString("LLAMA_PIPELINE_ID"),
		},
		Weaviate: WeaviateConfig{
			Class: v.GetString("WEAVIATE_CLASS"),
		},
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseBool reports whether s is one of the accepted truthy spellings
// ("true", "1", "yes"), case-insensitively. Anything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// validate checks all semantic constraints that cannot be expressed as defaults.
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d; must be in 1..65535", c.Port)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf(
			"config: invalid LOG_LEVEL %q; must be one of: debug, info, warn, error",
			c.LogLevel,
		)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("config: invalid LOG_FORMAT %q; must be json or text", c.LogFormat)
	}

	if c.VendorTimeout <= 0 {
		return fmt.Errorf("config: VENDOR_TIMEOUT must be a positive duration")
	}
	if c.HealthTimeout <= 0 {
		return fmt.Errorf("config: HEALTH_TIMEOUT must be a positive duration")
	}

	return nil
}

// loadDotEnv populates process env vars from a .env file when present.
// Variables already set in the host environment are left untouched.
func loadDotEnv(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config: %s is a directory, expected a file", path)
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	return nil
}
