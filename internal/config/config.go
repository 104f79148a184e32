// Package config loads tasker's TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/fsmiamoto/tasker/internal/completion"
	"github.com/fsmiamoto/tasker/internal/logging"
)

// Config is the on-disk configuration. The API key is deliberately absent:
// it is typed in each session and never stored.
type Config struct {
	Provider       string   `toml:"provider"`
	Model          string   `toml:"model"`
	MaxTokens      int      `toml:"max_tokens"`
	BaseURL        string   `toml:"base_url"`
	RequestTimeout Duration `toml:"request_timeout"`

	Log     LogConfig     `toml:"log"`
	Prompts PromptsConfig `toml:"prompts"`
}

type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type PromptsConfig struct {
	DecomposeFile string `toml:"decompose_file"`
	ExpandFile    string `toml:"expand_file"`
}

// Duration decodes TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Provider:  completion.ProviderOpenAI,
		MaxTokens: completion.DefaultMaxTokens,
		Log:       LogConfig{Level: "info"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/tasker/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "tasker", "config.toml")
}

// Load reads path over the defaults. A missing file is not an error unless
// the caller named it explicitly.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %q: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Provider {
	case completion.ProviderOpenAI, completion.ProviderAnthropic:
	default:
		return fmt.Errorf("provider must be %q or %q, got %q",
			completion.ProviderOpenAI, completion.ProviderAnthropic, c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout.Duration)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// CompletionOptions converts the file settings for completion.New.
func (c Config) CompletionOptions() completion.Options {
	return completion.Options{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		BaseURL:   c.BaseURL,
		Timeout:   c.RequestTimeout.Duration,
	}
}
