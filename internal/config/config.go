package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port             string
	CoinGeckoBaseURL string
	CoinGeckoAPIKey  string
	RedisURL         string
	CacheTTLPrices   time.Duration
	CacheTTLHistory  time.Duration
	CacheTTLCatalog  time.Duration
	UpstreamInterval time.Duration
	UpstreamBackoff  time.Duration
	UpstreamTimeout  time.Duration
	CatalogLimit     int
	RateLimitPerMin  int
	SeedDemo         bool
	LogLevel         string
}

func Load() Config {
	apiKey := getEnv("COINGECKO_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("CG_KEY", "")
	}
	return Config{
		Port:             getEnv("PORT", "4000"),
		CoinGeckoBaseURL: strings.TrimRight(getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"), "/"),
		CoinGeckoAPIKey:  apiKey,
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		CacheTTLPrices:   getEnvDuration("CACHE_TTL_PRICES", 5*time.Minute),
		CacheTTLHistory:  getEnvDuration("CACHE_TTL_HISTORY", 5*time.Minute),
		CacheTTLCatalog:  getEnvDuration("CACHE_TTL_CATALOG", 24*time.Hour),
		UpstreamInterval: getEnvMillis("UPSTREAM_INTERVAL_MS", 500*time.Millisecond),
		UpstreamBackoff:  getEnvMillis("UPSTREAM_BACKOFF_MS", 1500*time.Millisecond),
		UpstreamTimeout:  getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		CatalogLimit:     getEnvInt("CATALOG_LIMIT", 200),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MIN", 120),
		SeedDemo:         getEnvBool("SEED_DEMO", true),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getEnvDuration reads whole seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(i) * time.Second
}

func getEnvMillis(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return def
	}
	return time.Duration(i) * time.Millisecond
}
