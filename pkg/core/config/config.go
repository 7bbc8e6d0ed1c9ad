// Package config loads service settings from a YAML file, a .env file and the
// process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"financial_catalog/pkg/core/ingest"
	"financial_catalog/pkg/core/logger"
	"financial_catalog/pkg/core/merge"
)

// DefaultPath is where the YAML configuration is looked up.
const DefaultPath = "config/config.yaml"

type Config struct {
	Server ServerConfig `yaml:"server"`
	SEC    SECConfig    `yaml:"sec"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Merge  MergeConfig  `yaml:"merge"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type SECConfig struct {
	UserAgent   string        `yaml:"user_agent"`
	RateLimit   float64       `yaml:"rate_limit"`
	Timeout     time.Duration `yaml:"timeout"`
	ArchiveBase string        `yaml:"archive_base"`
	DataBase    string        `yaml:"data_base"`
}

type FetchConfig struct {
	MaxWorkers int `yaml:"max_workers"`
	MaxYears   int `yaml:"max_years"`
	// CacheDir holds parsed statements between runs. Empty disables caching.
	CacheDir string `yaml:"cache_dir"`
}

type MergeConfig struct {
	FallbackRatio float64 `yaml:"fallback_ratio"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8000", AllowOrigins: []string{"*"}},
		SEC: SECConfig{
			UserAgent:   ingest.DefaultUserAgent,
			RateLimit:   ingest.DefaultRateLimit,
			Timeout:     15 * time.Second,
			ArchiveBase: ingest.DefaultArchiveBase,
			DataBase:    ingest.DefaultDataBase,
		},
		Fetch: FetchConfig{MaxWorkers: ingest.DefaultMaxWorkers, MaxYears: ingest.DefaultMaxYears},
		Merge: MergeConfig{FallbackRatio: merge.DefaultFallbackRatio},
		Log:   LogConfig{Mode: "dev", Level: "info"},
	}
}

// Load reads path (a missing file is not an error), then .env, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("SEC_USER_AGENT"); v != "" {
		c.SEC.UserAgent = v
	}
	if v := getenv("FETCH_CACHE_DIR"); v != "" {
		c.Fetch.CacheDir = v
	}
	if v := getenv("LOG_MODE"); v != "" {
		c.Log.Mode = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("SEC_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SEC_RATE_LIMIT %q: %w", v, err)
		}
		c.SEC.RateLimit = f
	}
	if v := getenv("FETCH_MAX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FETCH_MAX_WORKERS %q: %w", v, err)
		}
		c.Fetch.MaxWorkers = n
	}
	if v := getenv("MERGE_FALLBACK_RATIO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MERGE_FALLBACK_RATIO %q: %w", v, err)
		}
		c.Merge.FallbackRatio = f
	}
	return nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	if c.Merge.FallbackRatio <= 0 || c.Merge.FallbackRatio > 1 {
		return fmt.Errorf("merge.fallback_ratio must be in (0, 1], got %v", c.Merge.FallbackRatio)
	}
	if c.Fetch.MaxWorkers <= 0 {
		return fmt.Errorf("fetch.max_workers must be positive, got %d", c.Fetch.MaxWorkers)
	}
	if c.Fetch.MaxYears <= 0 {
		return fmt.Errorf("fetch.max_years must be positive, got %d", c.Fetch.MaxYears)
	}
	if c.SEC.RateLimit <= 0 {
		return fmt.Errorf("sec.rate_limit must be positive, got %v", c.SEC.RateLimit)
	}
	return nil
}

// ClientOptions maps the SEC settings onto an EDGAR client.
func (c Config) ClientOptions() ingest.ClientOptions {
	return ingest.ClientOptions{
		ArchiveBase: c.SEC.ArchiveBase,
		DataBase:    c.SEC.DataBase,
		UserAgent:   c.SEC.UserAgent,
		RateLimit:   c.SEC.RateLimit,
		Timeout:     c.SEC.Timeout,
	}
}

// NewFetcher builds the EDGAR client and fetcher, with the statement cache
// when one is configured.
func (c Config) NewFetcher(log *logger.Logger) (*ingest.Fetcher, error) {
	opts := c.ClientOptions()
	opts.Logger = log
	f := ingest.NewFetcher(ingest.NewEDGARClient(opts), c.Fetch.MaxWorkers, c.Fetch.MaxYears, log)
	if c.Fetch.CacheDir == "" {
		return f, nil
	}
	cache, err := ingest.NewStatementCache(c.Fetch.CacheDir)
	if err != nil {
		return nil, err
	}
	return f.WithCache(cache), nil
}

// MergeOptions maps the merge settings onto the engine.
func (c Config) MergeOptions() merge.Config {
	return merge.Config{FallbackRatio: c.Merge.FallbackRatio}
}
