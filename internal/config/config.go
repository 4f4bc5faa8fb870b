package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures the tracked account, credentials, storage, the time-series
// sink, and the tracker's grace window.
type Config struct {
	Account     AccountConfig     `yaml:"account"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Storage     StorageConfig     `yaml:"storage"`
	Influx      InfluxConfig      `yaml:"influx"`
	Tracker     TrackerConfig     `yaml:"tracker"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type AccountConfig struct {
	Username string `yaml:"username"`
}

type CredentialsConfig struct {
	// X/Twitter API bearer token for v2 endpoints. If empty, read from env X_BEARER_TOKEN
	BearerToken string `yaml:"bearerToken"`
	// OAuth1.0a credentials for v1.1 endpoints (user context)
	ConsumerKey    string `yaml:"consumerKey"`
	ConsumerSecret string `yaml:"consumerSecret"`
	AccessToken    string `yaml:"accessToken"`
	AccessSecret   string `yaml:"accessSecret"`
}

// HasOAuth1 reports whether a full OAuth 1.0a credential set is present.
func (c CredentialsConfig) HasOAuth1() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type InfluxConfig struct {
	// HTTP address of the InfluxDB instance, e.g. http://localhost:8086.
	// If empty, read from env INFLUXDB_ADDR
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type TrackerConfig struct {
	// GraceWindow is how long a follower may be absent from snapshots
	// before a sweep marks it gone. Duration string, e.g. "48h".
	// Wider than one fetch interval so a single missed run does not
	// produce false unfollows.
	GraceWindow string `yaml:"graceWindow"`
	// FetchLimit caps how many followers are fetched per run; 0 means all.
	FetchLimit int `yaml:"fetchLimit"`
	// Interval between runs of the watch loop. Duration string, e.g. "24h".
	Interval string `yaml:"interval"`
}

type MetricsConfig struct {
	// Addr for the prometheus /metrics listener; empty disables it.
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Account:     AccountConfig{Username: ""},
		Credentials: CredentialsConfig{},
		Storage:     StorageConfig{DBPath: "./flockwatch.db"},
		Influx: InfluxConfig{
			Addr:     "http://localhost:8086",
			Database: "flockwatch",
		},
		Tracker: TrackerConfig{
			GraceWindow: "48h",
			FetchLimit:  0,
			Interval:    "24h",
		},
		Metrics: MetricsConfig{Addr: ""},
	}
}

// GraceWindow parses the configured grace window.
func (c Config) GraceWindow() (time.Duration, error) {
	d, err := time.ParseDuration(c.Tracker.GraceWindow)
	if err != nil {
		return 0, fmt.Errorf("tracker.graceWindow: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("tracker.graceWindow must be positive")
	}
	return d, nil
}

// Interval parses the configured watch-loop interval.
func (c Config) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Tracker.Interval)
	if err != nil {
		return 0, fmt.Errorf("tracker.interval: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("tracker.interval must be positive")
	}
	return d, nil
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.BearerToken == "" {
		c.Credentials.BearerToken = os.Getenv("X_BEARER_TOKEN")
	}
	if c.Credentials.ConsumerKey == "" {
		c.Credentials.ConsumerKey = os.Getenv("X_CONSUMER_KEY")
	}
	if c.Credentials.ConsumerSecret == "" {
		c.Credentials.ConsumerSecret = os.Getenv("X_CONSUMER_SECRET")
	}
	if c.Credentials.AccessToken == "" {
		c.Credentials.AccessToken = os.Getenv("X_ACCESS_TOKEN")
	}
	if c.Credentials.AccessSecret == "" {
		c.Credentials.AccessSecret = os.Getenv("X_ACCESS_SECRET")
	}
	if c.Influx.Addr == "" {
		c.Influx.Addr = os.Getenv("INFLUXDB_ADDR")
	}
	if c.Influx.Database == "" {
		c.Influx.Database = os.Getenv("INFLUXDB_DATABASE")
	}
	if c.Influx.Username == "" {
		c.Influx.Username = os.Getenv("INFLUXDB_USER")
	}
	if c.Influx.Password == "" {
		c.Influx.Password = os.Getenv("INFLUXDB_PASSWORD")
	}
}

// Validate checks the fields every run needs before any network or store
// access happens. Credential checks for a specific API variant are left to
// the caller since metrics-only runs can work with either auth style.
func (c Config) Validate() error {
	if c.Account.Username == "" {
		return errors.New("account.username is required")
	}
	if c.Credentials.BearerToken == "" && !c.Credentials.HasOAuth1() {
		return errors.New("missing X credentials: set credentials.bearerToken or the OAuth1 set (X_BEARER_TOKEN et al.)")
	}
	if c.Storage.DBPath == "" {
		return errors.New("storage.dbPath is required")
	}
	if _, err := c.GraceWindow(); err != nil {
		return err
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	return nil
}

// Load reads YAML config from path, resolves env fallbacks, and validates.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
