// Package config loads travel-agent settings from .env, an optional YAML
// file, TRAVEL_AGENT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// TRAVEL_AGENT_SERVER_ADDR.
const EnvPrefix = "TRAVEL_AGENT"

// Config is the complete runtime configuration.
type Config struct {
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// OpenAIConfig holds credentials and model choices for all three services.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	ChatModel   string        `mapstructure:"chat_model"`
	STTModel    string        `mapstructure:"stt_model"`
	TTSModel    string        `mapstructure:"tts_model"`
	Voice       string        `mapstructure:"voice"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RateLimit   float64       `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	Temperature float64       `mapstructure:"temperature"`
}

// AssistantConfig controls the conversation loop.
type AssistantConfig struct {
	SystemPrompt  string `mapstructure:"system_prompt"`
	MaxToolRounds int    `mapstructure:"max_tool_rounds"`
	DispatchAll   bool   `mapstructure:"dispatch_all"`
	OutDir        string `mapstructure:"out_dir"`
}

// ServerConfig controls the web UI.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

// LogConfig controls internal/log.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig controls internal/telemetry.
type TelemetryConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Dir     string        `mapstructure:"dir"`
	Flush   time.Duration `mapstructure:"flush"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.stt_model", "whisper-1")
	v.SetDefault("openai.tts_model", "tts-1")
	v.SetDefault("openai.voice", "onyx")
	v.SetDefault("openai.timeout", 60*time.Second)
	v.SetDefault("openai.max_retries", 0)
	v.SetDefault("openai.rate_limit", 0.0)
	// Zero leaves sampling to the model's own default.
	v.SetDefault("openai.temperature", 0.0)

	// Empty selects assistant.DefaultSystemPrompt.
	v.SetDefault("assistant.system_prompt", "")
	v.SetDefault("assistant.max_tool_rounds", 1)
	v.SetDefault("assistant.dispatch_all", false)
	v.SetDefault("assistant.out_dir", "out")

	v.SetDefault("server.addr", ":7860")
	v.SetDefault("server.max_upload_mb", 25)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dir", "logs")
	v.SetDefault("telemetry.flush", 10*time.Second)
}

// Load builds a Config. Sources, lowest precedence first: defaults, the
// YAML file at path (if non-empty), environment, then any changed flags.
// A .env file in the working directory is loaded first when present.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The key is conventionally unprefixed.
	if err := v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"addr":            "server.addr",
	"out":             "assistant.out_dir",
	"log-level":       "log.level",
	"log-file":        "log.file",
	"model":           "openai.chat_model",
	"voice":           "openai.voice",
	"max-tool-rounds": "assistant.max_tool_rounds",
	"dispatch-all":    "assistant.dispatch_all",
	"telemetry":       "telemetry.enabled",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks values that would otherwise fail far from their source.
// A missing API key is not an error here; see HasAPIKey.
func (c *Config) Validate() error {
	if c.OpenAI.ChatModel == "" {
		return errors.New("config: openai.chat_model is required")
	}
	if c.Assistant.MaxToolRounds < 1 {
		return fmt.Errorf("config: assistant.max_tool_rounds must be >= 1, got %d", c.Assistant.MaxToolRounds)
	}
	if c.Assistant.OutDir == "" {
		return errors.New("config: assistant.out_dir is required")
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("config: openai.max_retries must be >= 0, got %d", c.OpenAI.MaxRetries)
	}
	return nil
}

// HasAPIKey reports whether an OpenAI key is configured.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != ""
}
