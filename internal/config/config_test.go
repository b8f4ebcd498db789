package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("default backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("default ttl = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Providers.AlphaVantage.RateLimit.MaxRequests != 5 {
		t.Errorf("alpha vantage default limit = %d, want 5", cfg.Providers.AlphaVantage.RateLimit.MaxRequests)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
http:
  timeout: 5s
  retry_count: 2
cache:
  backend: sqlite
  ttl: 30m
providers:
  finnhub:
    api_key: from-file
    rate_limit:
      max_requests: 30
      window: 1m
      max_wait: 10s
schedule:
  watchlist: [AAPL, BTC]
`)
	t.Setenv("FINNHUB_API_KEY", "from-env")
	t.Setenv("CACHE_BACKEND", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.Finnhub.APIKey != "from-env" {
		t.Errorf("env should override api key, got %q", cfg.Providers.Finnhub.APIKey)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.HTTP.Timeout)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("ttl = %v, want 30m", cfg.Cache.TTL)
	}
	rl := cfg.RateLimits()["finnhub"]
	if rl.MaxRequests != 30 || rl.MaxWait != 10*time.Second || rl.Buffer != time.Second {
		t.Errorf("unexpected finnhub limit %+v", rl)
	}
	if len(cfg.Schedule.Watchlist) != 2 {
		t.Errorf("watchlist = %v", cfg.Schedule.Watchlist)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"retry too high", func(c *Config) { c.HTTP.RetryCount = 3 }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "s3" }},
		{"zero limit", func(c *Config) { c.Providers.Polygon.RateLimit.MaxRequests = 0 }},
		{"negative wait", func(c *Config) { c.Providers.Yahoo.RateLimit.MaxWait = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
