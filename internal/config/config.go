// Package config loads client configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the client configuration. Environment variables override the
// file: LYRA_BASE_URL, LYRA_SPEECH_URL, LYRA_DATA_DIR, LYRA_LOG_LEVEL.
type Config struct {
	// BaseURL of the backend API.
	BaseURL string `yaml:"base_url"`
	// SpeechURL of the speech endpoints. Empty means BaseURL.
	SpeechURL string `yaml:"speech_url,omitempty"`
	// DataDir holds the local settings database.
	DataDir string `yaml:"data_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:  "http://localhost:8000",
		DataDir:  defaultDataDir(),
		LogLevel: "info",
	}
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, "lyra")
}

// Path returns the config file location, honoring LYRA_CONFIG.
func Path() string {
	if p := os.Getenv("LYRA_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load reads the config file at path, applies defaults for unset fields,
// then applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if v := os.Getenv("LYRA_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LYRA_SPEECH_URL"); v != "" {
		cfg.SpeechURL = v
	}
	if v := os.Getenv("LYRA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LYRA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = Default().BaseURL
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// SpeechBase returns the base URL for the speech endpoints.
func (c Config) SpeechBase() string {
	if c.SpeechURL != "" {
		return c.SpeechURL
	}
	return c.BaseURL
}

// Save writes the config as YAML, creating the parent directory if needed.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
