package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/survey-007/iran-radiation-live/internal/model"
)

// APIKeyEnv overrides api.api_key when set.
const APIKeyEnv = "SAFECAST_API_KEY"

type CommonHTTP struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type APIConfig struct {
	Type    string     `yaml:"type"`     // "safecast"
	BaseURL string     `yaml:"base_url"` // https://api.safecast.org
	APIKey  string     `yaml:"api_key"`  // optional, sent as api_key query param
	Limit   int        `yaml:"limit"`    // records per region, default 100
	HTTP    CommonHTTP `yaml:"http"`
	// Per-request pacing & retries. Zero values keep a single unpaced attempt.
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	MaxRetries    int           `yaml:"max_retries"`
	Backoff       time.Duration `yaml:"backoff"`
	MaxBackoff    time.Duration `yaml:"max_backoff"`
}

type OutputConfig struct {
	Path         string `yaml:"path"`          // live_combined.kml
	DocumentName string `yaml:"document_name"` // <Document><name>
}

type ArchiveConfig struct {
	Path string `yaml:"path"` // sqlite file; empty disables the archive
}

type MetricsConfig struct {
	Enable   bool   `yaml:"enable"`
	Textfile string `yaml:"textfile"` // node_exporter textfile collector target
}

type DedupConfig struct {
	Enable  bool          `yaml:"enable"`
	TTL     time.Duration `yaml:"ttl"`
	MaxKeys int           `yaml:"max_keys"`
}

type Config struct {
	API     APIConfig      `yaml:"api"`
	Regions []model.Region `yaml:"regions"`
	Output  OutputConfig   `yaml:"output"`
	Archive ArchiveConfig  `yaml:"archive"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Dedup   DedupConfig    `yaml:"dedup"`
}

// DefaultRegions are the search areas used when no config file lists any.
func DefaultRegions() []model.Region {
	return []model.Region{
		{Name: "Turkey", Latitude: 39.0, Longitude: 35.0, DistanceKM: 300},
		{Name: "Iraq", Latitude: 33.3, Longitude: 44.4, DistanceKM: 300},
		{Name: "Georgia", Latitude: 41.7, Longitude: 44.8, DistanceKM: 150},
	}
}

// Default returns a fully populated config equivalent to an empty YAML file.
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.API.Type == "" {
		c.API.Type = "safecast"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.safecast.org"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Limit <= 0 {
		c.API.Limit = 100
	}
	if c.API.HTTP.Timeout == 0 {
		c.API.HTTP.Timeout = 15 * time.Second
	}
	if c.API.MaxRetries <= 0 {
		c.API.MaxRetries = 1
	}
	if c.API.Backoff == 0 {
		c.API.Backoff = 500 * time.Millisecond
	}
	if c.API.MaxBackoff == 0 {
		c.API.MaxBackoff = 5 * time.Second
	}
	if c.API.RatePerSecond > 0 && c.API.Burst <= 0 {
		c.API.Burst = 1
	}
	if len(c.Regions) == 0 {
		c.Regions = DefaultRegions()
	}
	if c.Output.Path == "" {
		c.Output.Path = "live_combined.kml"
	}
	if c.Output.DocumentName == "" {
		c.Output.DocumentName = "Safecast Radiation - Combined"
	}
	if c.Dedup.TTL == 0 {
		c.Dedup.TTL = 24 * time.Hour
	}
	if c.Dedup.MaxKeys == 0 {
		c.Dedup.MaxKeys = 10000
	}
}

// ApplyEnv copies environment overrides into c.
func (c *Config) ApplyEnv() {
	if k := strings.TrimSpace(os.Getenv(APIKeyEnv)); k != "" {
		c.API.APIKey = k
	}
}

func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Regions))
	for i, r := range c.Regions {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("regions[%d]: name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("regions[%d]: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = true
		if r.Latitude < -90 || r.Latitude > 90 {
			return fmt.Errorf("regions[%d] %s: latitude %g out of range", i, r.Name, r.Latitude)
		}
		if r.Longitude < -180 || r.Longitude > 180 {
			return fmt.Errorf("regions[%d] %s: longitude %g out of range", i, r.Name, r.Longitude)
		}
		if r.DistanceKM <= 0 {
			return fmt.Errorf("regions[%d] %s: distance_km must be positive", i, r.Name)
		}
	}
	if c.API.RatePerSecond < 0 {
		return errors.New("api.rate_per_second must not be negative")
	}
	return nil
}
