package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8000" || cfg.Fetch.MaxWorkers != 5 || cfg.Merge.FallbackRatio != 0.5 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  addr: ":9090"
sec:
  user_agent: "Example admin@example.com"
  timeout: 3s
fetch:
  max_workers: 2
merge:
  fallback_ratio: 0.6
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.SEC.UserAgent != "Example admin@example.com" {
		t.Errorf("yaml not applied: %+v", cfg)
	}
	if cfg.SEC.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.SEC.Timeout)
	}
	if cfg.Fetch.MaxWorkers != 2 || cfg.Fetch.MaxYears != 15 {
		t.Errorf("fetch = %+v", cfg.Fetch)
	}
	if cfg.MergeOptions().FallbackRatio != 0.6 {
		t.Errorf("merge options = %+v", cfg.MergeOptions())
	}
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"SERVER_ADDR":          ":7000",
		"SEC_RATE_LIMIT":       "4",
		"FETCH_MAX_WORKERS":    "9",
		"MERGE_FALLBACK_RATIO": "0.7",
		"LOG_MODE":             "prod",
	}
	cfg := Default()
	if err := cfg.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.SEC.RateLimit != 4 || cfg.Fetch.MaxWorkers != 9 ||
		cfg.Merge.FallbackRatio != 0.7 || cfg.Log.Mode != "prod" {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	bad := Default()
	if err := bad.applyEnv(func(k string) string {
		if k == "FETCH_MAX_WORKERS" {
			return "many"
		}
		return ""
	}); err == nil {
		t.Error("expected an error for a non-numeric worker count")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Merge.FallbackRatio = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("ratio above 1 must be rejected")
	}
	cfg = Default()
	cfg.Fetch.MaxWorkers = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero workers must be rejected")
	}
}

func TestNewFetcherWithCache(t *testing.T) {
	cfg := Default()
	cfg.Fetch.CacheDir = filepath.Join(t.TempDir(), "statements")
	f, err := cfg.NewFetcher(nil)
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}
	if f.MaxYears() != 15 {
		t.Errorf("max years = %d", f.MaxYears())
	}
	if _, err := os.Stat(cfg.Fetch.CacheDir); err != nil {
		t.Errorf("cache dir not created: %v", err)
	}
}
