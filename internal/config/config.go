package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	HTTP    HTTPConfig    `yaml:"http"`
	CDN     CDNConfig     `yaml:"cdn"`
	Tracker TrackerConfig `yaml:"tracker"`
}

// SearchConfig bounds the candidate search engine.
type SearchConfig struct {
	// Concurrency is the maximum number of in-flight verification requests.
	Concurrency int `yaml:"concurrency" envconfig:"SEARCH_CONCURRENCY" default:"100"`
	// ClipStride is the step between probed clip offsets, in seconds.
	ClipStride int64 `yaml:"clip_stride" envconfig:"SEARCH_CLIP_STRIDE" default:"1"`
	// RequestsPerSecond throttles outbound probes. Zero means unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"SEARCH_REQUESTS_PER_SECOND" default:"0"`
}

// HTTPConfig controls individual verification requests.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" envconfig:"HTTP_TIMEOUT" default:"10s"`
	UserAgent     string        `yaml:"user_agent" envconfig:"HTTP_USER_AGENT" default:"curl/7.54.0"`
	RetryAttempts int           `yaml:"retry_attempts" envconfig:"HTTP_RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `yaml:"retry_delay" envconfig:"HTTP_RETRY_DELAY" default:"500ms"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" envconfig:"HTTP_MAX_RETRY_DELAY" default:"5s"`
	RetryFactor   float64       `yaml:"retry_factor" envconfig:"HTTP_RETRY_FACTOR" default:"2.0"`
}

// CDNConfig extends the built-in host pool.
type CDNConfig struct {
	// ExtraHosts are appended to the default pool.
	ExtraHosts []string `yaml:"extra_hosts" envconfig:"CDN_EXTRA_HOSTS"`
	// HostsFile points at a txt/yaml/json file with additional hosts.
	HostsFile string `yaml:"hosts_file" envconfig:"CDN_HOSTS_FILE"`
}

// TrackerConfig controls the StreamsCharts hint scraper.
type TrackerConfig struct {
	// Mode selects the preferred StreamsCharts processing: "exact",
	// "bruteforce", or empty for exact with bruteforce fallback.
	Mode string `yaml:"mode" envconfig:"TRACKER_MODE" default:""`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Search.Concurrency < 1 {
		return fmt.Errorf("SEARCH_CONCURRENCY must be at least 1")
	}
	if c.Search.ClipStride < 1 {
		return fmt.Errorf("SEARCH_CLIP_STRIDE must be at least 1")
	}
	if c.Search.RequestsPerSecond < 0 {
		return fmt.Errorf("SEARCH_REQUESTS_PER_SECOND must not be negative")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.HTTP.RetryAttempts < 1 {
		return fmt.Errorf("HTTP_RETRY_ATTEMPTS must be at least 1")
	}
	if c.HTTP.RetryFactor < 1 {
		return fmt.Errorf("HTTP_RETRY_FACTOR must be at least 1")
	}
	switch c.Tracker.Mode {
	case "", "exact", "bruteforce":
	default:
		return fmt.Errorf("TRACKER_MODE must be \"exact\", \"bruteforce\" or empty")
	}
	return nil
}
