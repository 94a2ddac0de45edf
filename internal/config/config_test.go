package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dictate rate", func(c *Config) { c.DictateRate = 0 }},
		{"negative meeting rate", func(c *Config) { c.MeetingRate = -1 }},
		{"fps too high", func(c *Config) { c.FPS = 120 }},
		{"mic device below -1", func(c *Config) { c.MicDevice = -2 }},
		{"zero max retry", func(c *Config) { c.MaxRetry = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := Validate(&cfg); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	cfg := DefaultConfig()
	cfg.MicDevice = 3
	cfg.Language = "ru"
	cfg.DictateKey = "ctrl+a+s"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.MicDevice != 3 || got.Language != "ru" || got.DictateKey != "ctrl+a+s" {
		t.Fatalf("unexpected round-trip result: %+v", got)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestInitOutputDirCreates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "nested", "records")
	if err := InitOutputDir(&cfg); err != nil {
		t.Fatalf("InitOutputDir failed: %v", err)
	}
	info, err := os.Stat(cfg.OutputDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("output dir not created: %v", err)
	}
}
