package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds configurable parameters. Values are loaded from a JSON
// settings file and may be overridden by command-line flags.
type Config struct {
	APIEndpoint string `json:"API_ENDPOINT"`
	Token       string `json:"TOKEN"`
	Model       string `json:"MODEL"`
	Language    string `json:"LANGUAGE"`
	Prompt      string `json:"PROMPT"`
	TEXTPath    string `json:"TEXT_PATH"`

	DictateRate  int `json:"DICTATE_SAMPLING_RATE"`
	MeetingRate  int `json:"MEETING_SAMPLING_RATE"`
	FPS          int `json:"FPS"`
	AudioBitRate int `json:"AUDIO_BIT_RATE"`

	MicDevice    int    `json:"MIC_DEVICE"`
	RecordSystem bool   `json:"RECORD_SYSTEM"`
	OutputDir    string `json:"OUTPUT_DIR"`
	CacheDir     string `json:"CACHE_DIR"`
	KeepCache    bool   `json:"KEEP_CACHE"`

	DictateKey string `json:"DICTATE_KEY"`
	MeetingKey string `json:"MEETING_KEY"`

	RequestTimeout int     `json:"REQUEST_TIMEOUT"`
	MaxRetry       int     `json:"MAX_RETRY"`
	RetryBaseDelay float64 `json:"RETRY_BASE_DELAY"`
	EnableHTTP2    bool    `json:"ENABLE_HTTP2"`
	VerifySSL      bool    `json:"VERIFY_SSL"`

	Notification bool   `json:"NOTIFICATION"`
	Autostart    bool   `json:"AUTOSTART"`
	LogLevel     string `json:"LOG_LEVEL"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		APIEndpoint: "",
		Token:       "",
		Model:       "",
		Language:    "",
		Prompt:      "",
		TEXTPath:    "text",

		DictateRate:  16000,
		MeetingRate:  44100,
		FPS:          15,
		AudioBitRate: 192,

		MicDevice:    -1,
		RecordSystem: true,
		OutputDir:    "records",
		CacheDir:     "",
		KeepCache:    false,

		DictateKey: "ctrl+z+x",
		MeetingKey: "ctrl+alt+p",

		RequestTimeout: 30,
		MaxRetry:       3,
		RetryBaseDelay: 0.5,
		EnableHTTP2:    true,
		VerifySSL:      true,

		Notification: true,
		Autostart:    false,
		LogLevel:     "info",
	}
}

// Load loads config from JSON file if provided.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveDefault writes a default config JSON to the provided path.
func SaveDefault(path string) error {
	return Save(DefaultConfig(), path)
}

// Save writes cfg to path as indented JSON.
func Save(cfg Config, path string) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate verifies config fields and returns an error if any value is invalid.
func Validate(cfg *Config) error {
	if cfg.DictateRate <= 0 {
		return fmt.Errorf("invalid DICTATE_SAMPLING_RATE: %d (must be > 0)", cfg.DictateRate)
	}
	if cfg.MeetingRate <= 0 {
		return fmt.Errorf("invalid MEETING_SAMPLING_RATE: %d (must be > 0)", cfg.MeetingRate)
	}
	if cfg.FPS < 1 || cfg.FPS > 60 {
		return fmt.Errorf("invalid FPS: %d (allowed 1..60)", cfg.FPS)
	}
	if cfg.AudioBitRate <= 0 {
		return fmt.Errorf("invalid AUDIO_BIT_RATE: %d (must be > 0)", cfg.AudioBitRate)
	}
	if cfg.MicDevice < -1 {
		return fmt.Errorf("invalid MIC_DEVICE: %d (-1 means default)", cfg.MicDevice)
	}
	if cfg.MaxRetry < 1 {
		return fmt.Errorf("invalid MAX_RETRY: %d (must be >= 1)", cfg.MaxRetry)
	}
	if cfg.RetryBaseDelay < 0 {
		return fmt.Errorf("invalid RETRY_BASE_DELAY: %v (must be >= 0)", cfg.RetryBaseDelay)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %s (allowed: debug, info, warn, error)", cfg.LogLevel)
	}
	return nil
}

// InitOutputDir resolves cfg.OutputDir to an absolute path, creating it
// if needed.
func InitOutputDir(cfg *Config) error {
	dir := cfg.OutputDir
	if dir == "" {
		dir = "records"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("output-dir path invalid '%s': %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return fmt.Errorf("cannot create output-dir '%s': %w", abs, err)
	}
	cfg.OutputDir = abs
	return nil
}

// InitCacheDir validates/creates the configured cache directory.
// It mutates cfg.CacheDir to an absolute path or clears it on failure.
func InitCacheDir(cfg *Config) {
	if cfg.CacheDir == "" {
		return
	}
	abs, err := filepath.Abs(cfg.CacheDir)
	if err != nil {
		cfg.CacheDir = ""
		return
	}
	info, err := os.Stat(abs)
	if err == nil {
		if !info.IsDir() {
			cfg.CacheDir = ""
			return
		}
		cfg.CacheDir = abs
		return
	}
	if os.IsNotExist(err) {
		if err := os.MkdirAll(abs, 0755); err != nil {
			cfg.CacheDir = ""
			return
		}
		cfg.CacheDir = abs
		return
	}
	cfg.CacheDir = ""
}

// TempDir returns the directory to use for temporary files.
func TempDir(cfg *Config) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	cwd, _ := os.Getwd()
	return cwd
}
