package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir is empty")
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "base_url: https://api.example.com\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q, want file value", cfg.BaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}

	t.Setenv("LYRA_BASE_URL", "https://env.example.com")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q, env must override file", cfg.BaseURL)
	}
}

func TestSpeechBase_FallsBackToBaseURL(t *testing.T) {
	cfg := Config{BaseURL: "https://api.example.com"}
	if got := cfg.SpeechBase(); got != "https://api.example.com" {
		t.Errorf("SpeechBase = %q, want base URL fallback", got)
	}
	cfg.SpeechURL = "https://speech.example.com"
	if got := cfg.SpeechBase(); got != "https://speech.example.com" {
		t.Errorf("SpeechBase = %q, want explicit speech URL", got)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("base_url: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load of malformed YAML succeeded, want error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := Config{BaseURL: "https://api.example.com", DataDir: "/tmp/lyra", LogLevel: "warn"}
	if err := in.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
