package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// BackendURLEnv overrides backend_url when set.
const BackendURLEnv = "AUROSEARCH_BACKEND_URL"

// DefaultBackendURL is used when neither the config file nor the environment
// name a backend.
const DefaultBackendURL = "http://127.0.0.1:5001"

// Config is loaded once at startup and handed to components by value.
type Config struct {
	BackendURL     string            `toml:"backend_url"`
	PageSize       int               `toml:"page_size"`
	TopK           int               `toml:"top_k"`
	Debounce       Duration          `toml:"debounce"`
	RequestTimeout Duration          `toml:"request_timeout"`
	SessionTTL     Duration          `toml:"session_ttl"`
	HistoryPath    string            `toml:"history_path"`
	AuthorOrder    []string          `toml:"author_order"`
	GroupLabels    map[string]string `toml:"group_labels"`
	Breaker        BreakerConfig     `toml:"breaker"`
	RateLimit      RateLimitConfig   `toml:"rate_limit"`
}

// BreakerConfig tunes the circuit breaker guarding backend calls.
type BreakerConfig struct {
	Enabled          bool     `toml:"enabled"`
	MinRequests      uint32   `toml:"min_requests"`
	FailureRatio     float64  `toml:"failure_ratio"`
	OpenTimeout      Duration `toml:"open_timeout"`
	HalfOpenMaxCalls uint32   `toml:"half_open_max_calls"`
}

// RateLimitConfig holds inbound (web) and outbound (backend) token buckets.
// A zero rate disables the corresponding limiter.
type RateLimitConfig struct {
	WebRPS       float64 `toml:"web_rps"`
	WebBurst     int     `toml:"web_burst"`
	BackendRPS   float64 `toml:"backend_rps"`
	BackendBurst int     `toml:"backend_burst"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() *Config {
	return &Config{
		BackendURL:     DefaultBackendURL,
		PageSize:       10,
		TopK:           100,
		Debounce:       Duration{300 * time.Millisecond},
		RequestTimeout: Duration{15 * time.Second},
		SessionTTL:     Duration{30 * time.Minute},
		AuthorOrder:    []string{"Sri Aurobindo", "The Mother", "Disciples"},
		GroupLabels: map[string]string{
			"CWSA":      "Collected Works of Sri Aurobindo",
			"CWM":       "Collected Works of The Mother",
			"Disciples": "Works of Disciples",
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			MinRequests:      10,
			FailureRatio:     0.5,
			OpenTimeout:      Duration{30 * time.Second},
			HalfOpenMaxCalls: 2,
		},
		RateLimit: RateLimitConfig{
			WebRPS:       20,
			WebBurst:     40,
			BackendRPS:   10,
			BackendBurst: 20,
		},
	}
}

// LoadConfig reads configPath, falling back to defaults when the file does not
// exist, and applies the backend URL environment override.
func LoadConfig(configPath string) (*Config, error) {
	cfg := GetDefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	if env := strings.TrimSpace(os.Getenv(BackendURLEnv)); env != "" {
		cfg.BackendURL = env
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	def := GetDefaultConfig()
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	if c.BackendURL == "" {
		c.BackendURL = DefaultBackendURL
	}
	if c.PageSize <= 0 {
		c.PageSize = def.PageSize
	}
	if c.TopK <= 0 {
		c.TopK = def.TopK
	}
	if c.Debounce.Duration < 0 {
		c.Debounce = def.Debounce
	}
	if c.RequestTimeout.Duration <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.SessionTTL.Duration <= 0 {
		c.SessionTTL = def.SessionTTL
	}
	if len(c.AuthorOrder) == 0 {
		c.AuthorOrder = def.AuthorOrder
	}
	if c.GroupLabels == nil {
		c.GroupLabels = def.GroupLabels
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = def.Breaker.MinRequests
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		c.Breaker.FailureRatio = def.Breaker.FailureRatio
	}
	if c.Breaker.OpenTimeout.Duration <= 0 {
		c.Breaker.OpenTimeout = def.Breaker.OpenTimeout
	}
	if c.Breaker.HalfOpenMaxCalls == 0 {
		c.Breaker.HalfOpenMaxCalls = def.Breaker.HalfOpenMaxCalls
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("backend_url must be an http(s) URL, got %q", c.BackendURL)
	}
	if c.RateLimit.WebRPS < 0 || c.RateLimit.BackendRPS < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	return nil
}

// SaveTemplateConfig writes the commented sample config to configPath.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	historyPath := c.HistoryPath
	if historyPath == "" {
		dataDir, err := GetDefaultDataDir()
		if err != nil {
			return fmt.Errorf("getting default data directory: %w", err)
		}
		historyPath = filepath.Join(dataDir, "history.db")
	}

	template := strings.Replace(configTemplate, "/home/user/.local/share/aurosearch/history.db", historyPath, 1)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// GetDefaultDataDir returns the directory holding the history database.
func GetDefaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "aurosearch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetConfigDir returns the configuration directory for aurosearch.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "aurosearch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
