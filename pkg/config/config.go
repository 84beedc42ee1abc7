// Package config loads settings from defaults, an optional config file and
// INDICTRANS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "INDICTRANS"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Model       ModelConfig       `mapstructure:"model"`
	Remote      RemoteConfig      `mapstructure:"remote"`
	Anthropic   AnthropicConfig   `mapstructure:"anthropic"`
	Translation TranslationConfig `mapstructure:"translation"`
	Cache       CacheConfig       `mapstructure:"cache"`
	History     HistoryConfig     `mapstructure:"history"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type ModelConfig struct {
	Dir            string `mapstructure:"dir"`
	Device         string `mapstructure:"device"`
	Backend        string `mapstructure:"backend"`
	Preload        bool   `mapstructure:"preload"`
	ProbeArtifacts bool   `mapstructure:"probe_artifacts"`
}

type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AnthropicConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
}

type TranslationConfig struct {
	MaxWords       int `mapstructure:"max_words"`
	MaxLength      int `mapstructure:"max_length"`
	NumBeams       int `mapstructure:"num_beams"`
	MaxInputTokens int `mapstructure:"max_input_tokens"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxCost int64         `mapstructure:"max_cost"`
	// NumCounters of zero is derived from MaxCost.
	NumCounters int64 `mapstructure:"num_counters"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	BackendRemote    = "remote"
	BackendAnthropic = "anthropic"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")

	v.SetDefault("model.dir", "models/translation/IndicTrans2")
	v.SetDefault("model.device", "cpu")
	v.SetDefault("model.backend", BackendRemote)
	v.SetDefault("model.preload", false)
	v.SetDefault("model.probe_artifacts", true)

	v.SetDefault("remote.base_url", "http://localhost:5000")
	v.SetDefault("remote.timeout", 120*time.Second)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-3-5-sonnet-20240620")
	v.SetDefault("anthropic.temperature", 0.3)
	v.SetDefault("anthropic.requests_per_minute", 50)

	v.SetDefault("translation.max_words", 500)
	v.SetDefault("translation.max_length", 256)
	v.SetDefault("translation.num_beams", 4)
	v.SetDefault("translation.max_input_tokens", 512)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.max_cost", int64(1e7))
	v.SetDefault("cache.num_counters", int64(0))

	v.SetDefault("history.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads path when it is not empty. Environment variables override the
// file, e.g. INDICTRANS_MODEL_DIR overrides model.dir.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("anthropic.api_key", EnvPrefix+"_ANTHROPIC_API_KEY", "ANTHROPIC_KEY"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Model.Backend {
	case BackendRemote, BackendAnthropic:
	default:
		return fmt.Errorf("unknown model backend %q (want %s or %s)", c.Model.Backend, BackendRemote, BackendAnthropic)
	}
	if c.Translation.MaxWords <= 0 {
		return errors.New("translation.max_words must be positive")
	}
	if c.Translation.NumBeams <= 0 {
		return errors.New("translation.num_beams must be positive")
	}
	if c.Translation.MaxLength <= 0 {
		return errors.New("translation.max_length must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
