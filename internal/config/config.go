package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath overrides the default config location.
const EnvPath = "TUTORCAL_CONFIG_PATH"

const defaultPath = "configs/config.yaml"

type Config struct {
	API struct {
		BaseURL         string  `yaml:"base_url"`
		Token           string  `yaml:"token"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
		RateLimitRPS    float64 `yaml:"rate_limit_rps"`
		RateLimitBurst  int     `yaml:"rate_limit_burst"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	} `yaml:"api"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Calendar struct {
		DefaultView            string `yaml:"default_view"`
		FirstHour              int    `yaml:"first_hour"`
		LastHour               int    `yaml:"last_hour"`
		PageSize               int    `yaml:"page_size"`
		Demo                   bool   `yaml:"demo"`
		RefreshIntervalSeconds int    `yaml:"refresh_interval_seconds"`
	} `yaml:"calendar"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads the YAML config. An empty path falls back to $TUTORCAL_CONFIG_PATH and then
// to configs/config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a config document. ${ENV_VAR} placeholders are expanded first.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url is required")
	}
	return &cfg, nil
}

func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	if c.API.CacheTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

// RateLimit returns requests per second and burst. Zero rps disables throttling.
func (c *Config) RateLimit() (float64, int) {
	burst := c.API.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return c.API.RateLimitRPS, burst
}

func (c *Config) RefreshInterval() time.Duration {
	if c.Calendar.RefreshIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Calendar.RefreshIntervalSeconds) * time.Second
}

// GridHours returns the rendered hour rows. An unset or invalid range covers the whole day.
func (c *Config) GridHours() (first, last int) {
	first, last = c.Calendar.FirstHour, c.Calendar.LastHour
	if first < 0 || first > 23 || last < first || last > 23 || (first == 0 && last == 0) {
		return 0, 23
	}
	return first, last
}

func (c *Config) PageSize() int {
	if c.Calendar.PageSize <= 0 {
		return 100
	}
	return c.Calendar.PageSize
}

func (c *Config) MetricsPort() int {
	if c.Monitoring.PrometheusPort <= 0 {
		return 9090
	}
	return c.Monitoring.PrometheusPort
}
