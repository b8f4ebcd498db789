package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"TradeCouncil/internal/logger"
)

// RateLimit is the sliding-window budget of a single provider.
type RateLimit struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	Buffer      time.Duration `yaml:"buffer"`
	MaxWait     time.Duration `yaml:"max_wait"`
}

// Provider describes one upstream market-data API.
type Provider struct {
	BaseURL   string    `yaml:"base_url"`
	APIKey    string    `yaml:"api_key"`
	RateLimit RateLimit `yaml:"rate_limit"`
}

// Config holds all application configuration.
type Config struct {
	Log      logger.Config `yaml:"log"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Providers struct {
		Finnhub      Provider `yaml:"finnhub"`
		AlphaVantage Provider `yaml:"alpha_vantage"`
		Polygon      Provider `yaml:"polygon"`
		Yahoo        Provider `yaml:"yahoo"`
		CoinGecko    Provider `yaml:"coingecko"`
	} `yaml:"providers"`
	HTTP struct {
		Timeout    time.Duration `yaml:"timeout"`
		RetryCount int           `yaml:"retry_count"`
		RetryWait  time.Duration `yaml:"retry_wait"`
		Proxy      string        `yaml:"proxy"`
	} `yaml:"http"`
	Cache struct {
		Backend      string        `yaml:"backend"` // memory, file, sqlite, redis
		TTL          time.Duration `yaml:"ttl"`
		SizeBudget   int64         `yaml:"size_budget"`
		AssumedQuota int64         `yaml:"assumed_quota"`
		FilePath     string        `yaml:"file_path"`
		SQLitePath   string        `yaml:"sqlite_path"`
		Redis        struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Orchestrator struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"orchestrator"`
	Schedule struct {
		WatchlistCron string   `yaml:"watchlist_cron"`
		QuotaCron     string   `yaml:"quota_cron"`
		Watchlist     []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Providers.Polygon.APIKey = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Providers.CoinGecko.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.HTTP.Proxy = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Redis.DB = db
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_WATCHLIST"); v != "" {
		cfg.Schedule.WatchlistCron = v
	}
}

func applyDefaults(cfg *Config) {
	p := &cfg.Providers
	setProvider(&p.Finnhub, "https://finnhub.io/api/v1", RateLimit{MaxRequests: 60, Window: time.Minute, Buffer: time.Second})
	// The free Alpha Vantage tier allows 5 calls per minute.
	setProvider(&p.AlphaVantage, "https://www.alphavantage.co", RateLimit{MaxRequests: 5, Window: time.Minute, Buffer: time.Second})
	setProvider(&p.Polygon, "https://api.polygon.io", RateLimit{MaxRequests: 5, Window: time.Minute, Buffer: time.Second})
	setProvider(&p.Yahoo, "https://query1.finance.yahoo.com", RateLimit{MaxRequests: 30, Window: time.Minute, Buffer: 500 * time.Millisecond})
	setProvider(&p.CoinGecko, "https://api.coingecko.com/api/v3", RateLimit{MaxRequests: 10, Window: time.Minute, Buffer: time.Second})

	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 15 * time.Second
	}
	if cfg.HTTP.RetryWait == 0 {
		cfg.HTTP.RetryWait = 2 * time.Second
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Cache.SizeBudget == 0 {
		cfg.Cache.SizeBudget = 4 << 20
	}
	if cfg.Cache.AssumedQuota == 0 {
		cfg.Cache.AssumedQuota = 5 << 20
	}
	if cfg.Cache.FilePath == "" {
		cfg.Cache.FilePath = "data/cache.json"
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = "data/cache.db"
	}
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = "localhost:6379"
	}
	if cfg.Cache.Redis.Prefix == "" {
		cfg.Cache.Redis.Prefix = "council:"
	}

	if cfg.Orchestrator.Timeout == 0 {
		cfg.Orchestrator.Timeout = 90 * time.Second
	}
	if cfg.Schedule.WatchlistCron == "" {
		cfg.Schedule.WatchlistCron = "0 30 21 * * 1-5"
	}
	if cfg.Schedule.QuotaCron == "" {
		cfg.Schedule.QuotaCron = "0 */10 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/council.db"
	}
}

func setProvider(p *Provider, baseURL string, rl RateLimit) {
	if p.BaseURL == "" {
		p.BaseURL = baseURL
	}
	if p.RateLimit.MaxRequests == 0 {
		p.RateLimit.MaxRequests = rl.MaxRequests
	}
	if p.RateLimit.Window == 0 {
		p.RateLimit.Window = rl.Window
	}
	if p.RateLimit.Buffer == 0 {
		p.RateLimit.Buffer = rl.Buffer
	}
}

// Validate checks invariants the rest of the process relies on.
func (c *Config) Validate() error {
	if c.HTTP.RetryCount < 0 || c.HTTP.RetryCount > 2 {
		return fmt.Errorf("http.retry_count must be between 0 and 2")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	switch c.Cache.Backend {
	case "memory", "file", "sqlite", "redis":
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.SizeBudget <= 0 || c.Cache.AssumedQuota <= 0 {
		return fmt.Errorf("cache size budget and quota must be positive")
	}
	for name, p := range c.providerMap() {
		if p.RateLimit.MaxRequests <= 0 || p.RateLimit.Window <= 0 {
			return fmt.Errorf("providers.%s.rate_limit must be positive", name)
		}
		if p.RateLimit.MaxWait < 0 {
			return fmt.Errorf("providers.%s.rate_limit.max_wait must not be negative", name)
		}
	}
	return nil
}

// Notifications reports whether Telegram delivery is configured.
func (c *Config) Notifications() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// RateLimits returns the limiter settings keyed by provider name.
func (c *Config) RateLimits() map[string]RateLimit {
	out := make(map[string]RateLimit, 5)
	for name, p := range c.providerMap() {
		out[name] = p.RateLimit
	}
	return out
}

func (c *Config) providerMap() map[string]Provider {
	return map[string]Provider{
		"finnhub":       c.Providers.Finnhub,
		"alpha_vantage": c.Providers.AlphaVantage,
		"polygon":       c.Providers.Polygon,
		"yahoo":         c.Providers.Yahoo,
		"coingecko":     c.Providers.CoinGecko,
	}
}
