package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port       string
	Env        string
	JWTSecret  string
	JWTTTL     time.Duration
	CronSecret string

	// CORSOrigins lists the hosts allowed to call the API from a browser.
	CORSOrigins []string

	DB          DatabaseConfig
	Redis       RedisConfig
	MobiMatter  MobiMatterConfig
	Airalo      AiraloConfig
	Pricing     PricingConfig
	Worker      WorkerConfig
	Upstream    UpstreamConfig
	Mongo       MongoConfig
	FeedArchive FeedArchiveConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// MobiMatterConfig contains credentials for the MobiMatter wholesale API.
type MobiMatterConfig struct {
	BaseURL    string
	APIKey     string
	MerchantID string
}

// Enabled reports whether MobiMatter credentials are present.
func (c MobiMatterConfig) Enabled() bool {
	return c.APIKey != "" && c.MerchantID != ""
}

// AiraloConfig contains OAuth client credentials for the Airalo partner API.
type AiraloConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Enabled reports whether Airalo credentials are present.
func (c AiraloConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// PricingConfig controls wholesale to retail conversion.
type PricingConfig struct {
	MarginPercent  float64
	RetailCurrency string
	// ExchangeRates maps an upstream currency to units of RetailCurrency.
	// Used when no rate row exists in the database.
	ExchangeRates map[string]float64
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	SyncEnabled  bool
	SyncInterval time.Duration
}

// UpstreamConfig controls calls to the aggregator APIs.
type UpstreamConfig struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryBaseWait time.Duration
}

// MongoConfig points at the optional catalog read mirror.
type MongoConfig struct {
	URI      string
	Database string
}

// FeedArchiveConfig points at the optional S3 bucket for raw aggregator payloads.
type FeedArchiveConfig struct {
	Bucket string
	Region string
	Prefix string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; production relies on real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CronSecret = getEnv("CRON_SECRET", "")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "esim.mn,www.esim.mn,admin.esim.mn,localhost:3000"))

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Aggregators
	cfg.MobiMatter = MobiMatterConfig{
		BaseURL:    getEnv("MOBIMATTER_BASE_URL", "https://api.mobimatter.com/mobimatter/api"),
		APIKey:     getEnv("MOBIMATTER_API_KEY", ""),
		MerchantID: getEnv("MOBIMATTER_MERCHANT_ID", ""),
	}
	cfg.Airalo = AiraloConfig{
		BaseURL:      getEnv("AIRALO_BASE_URL", "https://partners-api.airalo.com"),
		ClientID:     getEnv("AIRALO_CLIENT_ID", ""),
		ClientSecret: getEnv("AIRALO_CLIENT_SECRET", ""),
	}

	// Pricing
	cfg.Pricing = PricingConfig{
		MarginPercent:  getEnvFloat("PRICE_MARGIN_PERCENT", 25),
		RetailCurrency: strings.ToUpper(getEnv("RETAIL_CURRENCY", "MNT")),
	}
	rates, err := parseRates(getEnv("EXCHANGE_RATES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid EXCHANGE_RATES: %w", err)
	}
	cfg.Pricing.ExchangeRates = rates

	// Optional mirrors
	cfg.Mongo = MongoConfig{
		URI:      getEnv("MONGO_URI", ""),
		Database: getEnv("MONGO_DATABASE", "esim"),
	}
	cfg.FeedArchive = FeedArchiveConfig{
		Bucket: getEnv("FEED_ARCHIVE_BUCKET", ""),
		Region: getEnv("AWS_REGION", "ap-northeast-2"),
		Prefix: getEnv("FEED_ARCHIVE_PREFIX", "feeds"),
	}

	// Durations
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.Redis.CacheTTL, err = parseDurationEnv("PRODUCT_CACHE_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid PRODUCT_CACHE_TTL: %w", err)
	}
	cfg.Worker.SyncEnabled = getEnvBool("SYNC_ENABLED", true)
	if cfg.Worker.SyncInterval, err = parseDurationEnv("SYNC_INTERVAL", "6h"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	if cfg.Upstream.Timeout, err = parseDurationEnv("UPSTREAM_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}
	if cfg.Upstream.RetryBaseWait, err = parseDurationEnv("UPSTREAM_RETRY_WAIT", "500ms"); err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_RETRY_WAIT: %w", err)
	}
	cfg.Upstream.RetryAttempts = getEnvInt("UPSTREAM_RETRY_ATTEMPTS", 3)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
		return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set for authentication")
	}
	if c.CronSecret == "" {
		return errors.New("CRON_SECRET must be set to protect scheduled endpoints")
	}
	if c.Pricing.MarginPercent < 0 {
		return errors.New("PRICE_MARGIN_PERCENT must be >= 0")
	}
	if c.Upstream.Timeout == 0 {
		return errors.New("UPSTREAM_TIMEOUT must be > 0")
	}
	if c.Upstream.RetryAttempts < 1 {
		return errors.New("UPSTREAM_RETRY_ATTEMPTS must be >= 1")
	}
	if !c.MobiMatter.Enabled() && !c.Airalo.Enabled() {
		return errors.New("no aggregator configured: set MOBIMATTER_API_KEY/MOBIMATTER_MERCHANT_ID or AIRALO_CLIENT_ID/AIRALO_CLIENT_SECRET")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
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

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
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

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRates parses "USD:3450,EUR:3700" into a currency map.
func parseRates(raw string) (map[string]float64, error) {
	rates := make(map[string]float64)
	if strings.TrimSpace(raw) == "" {
		return rates, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		cur, val, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("expected CUR:rate, got %q", pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", cur, err)
		}
		if f <= 0 {
			return nil, fmt.Errorf("rate for %s must be > 0", cur)
		}
		rates[strings.ToUpper(strings.TrimSpace(cur))] = f
	}
	return rates, nil
}
