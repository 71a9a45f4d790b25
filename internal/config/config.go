package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the scorn configuration.
type Config struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	MinSeverity    string        `yaml:"minSeverity"`
	Format         string        `yaml:"format"`
	FailOn         string        `yaml:"failOn"`
	MaxFindings    int           `yaml:"maxFindings"`
	TimeoutSeconds int           `yaml:"timeoutSeconds"`
	MaxRetries     int           `yaml:"maxRetries"`
	Cache          CacheConfig   `yaml:"cache"`
	Privacy        PrivacyConfig `yaml:"privacy"`
	History        HistoryConfig `yaml:"history"`
}

// CacheConfig controls response caching behavior.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir,omitempty"`
	TTLSeconds int    `yaml:"ttlSeconds"`
}

// PrivacyConfig controls redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty"`
}

// HistoryConfig controls scan history persistence.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:       "anthropic",
		Model:          "claude-sonnet-4-20250514",
		MinSeverity:    "minor",
		Format:         "text",
		FailOn:         "none",
		MaxFindings:    50,
		TimeoutSeconds: 25,
		MaxRetries:     3,
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Dir returns the platform-appropriate config directory for scorn.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scorn"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "scorn"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "scorn"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "scorn"), nil
	default:
		return filepath.Join(home, ".config", "scorn"), nil
	}
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "scorn.yaml"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags (only non-zero values
// should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.MinSeverity != "" {
		dst.MinSeverity = src.MinSeverity
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.FailOn != "" {
		dst.FailOn = src.FailOn
	}
	if src.MaxFindings > 0 {
		dst.MaxFindings = src.MaxFindings
	}
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.MaxRetries > 0 {
		dst.MaxRetries = src.MaxRetries
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	// YAML zero value for bool can't distinguish unset from false; keep the
	// stronger of the two for cache, trust the file for privacy lists.
	dst.Cache.Enabled = src.Cache.Enabled || dst.Cache.Enabled
	if len(src.Privacy.RedactPaths) > 0 {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}
	if src.History.Path != "" {
		dst.History.Path = src.History.Path
	}
	dst.History.Enabled = src.History.Enabled || dst.History.Enabled
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("SCORN_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("SCORN_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("SCORN_MIN_SEVERITY"); v != "" {
		cfg.MinSeverity = v
	}
	if v := os.Getenv("SCORN_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("SCORN_FAIL_ON"); v != "" {
		cfg.FailOn = v
	}
	if v := os.Getenv("SCORN_MAX_FINDINGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFindings = n
		}
	}
	if v := os.Getenv("SCORN_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		// Flag overrides reuse the SetField key space.
		_ = SetField(cfg, key, v)
	}
}

// SetField sets a single config field by key name. Returns error if key is
// unknown or the value does not parse.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "minSeverity":
		cfg.MinSeverity = value
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "maxFindings":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxFindings must be an integer: %w", err)
		}
		cfg.MaxFindings = n
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeoutSeconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "maxRetries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxRetries must be an integer: %w", err)
		}
		cfg.MaxRetries = n
	case "historyPath":
		cfg.History.Path = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
