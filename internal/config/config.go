package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// EnvAPIURL overrides api_url when set.
const EnvAPIURL = "BLOGDESK_API_URL"

type Config struct {
	APIURL           string  `yaml:"api_url"`
	HealthPath       string  `yaml:"health_path"`
	ImageURL         string  `yaml:"image_url"`
	HealthInterval   string  `yaml:"health_interval"`
	RequestTimeout   string  `yaml:"request_timeout"`
	RateLimit        float64 `yaml:"rate_limit"`
	RateBurst        int     `yaml:"rate_burst"`
	Theme            string  `yaml:"theme"`
	LogLevel         string  `yaml:"log_level"`
	DataDir          string  `yaml:"data_dir,omitempty"`
	HistoryRetention string  `yaml:"history_retention"`
}

// HealthDuration is how often the API probe runs. Defaults to 30s.
func (c *Config) HealthDuration() time.Duration {
	d, err := time.ParseDuration(c.HealthInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// TimeoutDuration bounds a single request. Zero, the default, means no bound.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (c *Config) RetentionDuration() time.Duration {
	if c.HistoryRetention == "" {
		return 90 * 24 * time.Hour
	}
	// Support "Nd" day syntax
	if d, ok := parseDays(c.HistoryRetention); ok {
		return d
	}
	d, err := time.ParseDuration(c.HistoryRetention)
	if err != nil {
		return 90 * 24 * time.Hour
	}
	return d
}

func parseDays(s string) (time.Duration, bool) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, true
		}
	}
	return 0, false
}

// DarkTheme reports whether the configured default theme is dark.
func (c *Config) DarkTheme() bool {
	return c.Theme != "light"
}

// Level returns the zap level for log_level, falling back to info.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// ImageLink builds the URL an article image is served from.
func (c *Config) ImageLink(name string) string {
	if name == "" || c.ImageURL == "" {
		return ""
	}
	return strings.TrimRight(c.ImageURL, "/") + "/" + url.PathEscape(name)
}

func (c *Config) dataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(xdg.StateHome, "blogdesk")
}

// StorePath is the local preferences and activity database.
func (c *Config) StorePath() string {
	return filepath.Join(c.dataDir(), "blogdesk.db")
}

// LogPath is where the JSON log is written.
func (c *Config) LogPath() string {
	return filepath.Join(c.dataDir(), "blogdesk.log")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "blogdesk", "config.yaml")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path (or the default location), layering it
// over the embedded defaults, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Non-fatal: embedded defaults still apply
		_ = writeDefaults(path)
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the fields a client cannot start without.
func Validate(cfg *Config) error {
	if err := validateHTTPURL("api_url", cfg.APIURL); err != nil {
		return err
	}
	if cfg.ImageURL != "" {
		if err := validateHTTPURL("image_url", cfg.ImageURL); err != nil {
			return err
		}
	}
	if cfg.Theme != "" && cfg.Theme != "dark" && cfg.Theme != "light" {
		return fmt.Errorf("theme: unknown value %q (valid: dark, light)", cfg.Theme)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate_limit: must not be negative, got %v", cfg.RateLimit)
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: url scheme must be http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: url has no host", field)
	}
	return nil
}
