// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitPerMinute() int
}

// ContentAPIConfig provides settings for the remote content backend.
type ContentAPIConfig interface {
	GetContentAPIURL() string
	GetContentAPIKey() string
	GetContentAPITimeout() time.Duration
	GetContentAPIPageSize() int
}

// CacheConfig provides settings for the directory result cache.
type CacheConfig interface {
	GetCacheTTL() time.Duration
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	IsRedisEnabled() bool
}

// DirectoryConfig provides settings for directory sessions and vendor normalization.
type DirectoryConfig interface {
	CacheConfig
	GetDebounce() time.Duration
	GetSessionIdleTTL() time.Duration
	GetDistanceUnit() string
	GetPlaceholderLogoURL() string
	GetPlaceholderBannerURL() string
	GetCategoryIconsFile() string
	GetPhoneDefaultRegion() string
}

// GeocoderConfig provides settings for free-text location lookup.
type GeocoderConfig interface {
	GetGeocoderURL() string
	GetGeocoderCountryCodes() string
	GetGeocoderUserAgent() string
	GetGeocoderRatePerSecond() float64
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetWarmInterval() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

const (
	minDebounce = 600 * time.Millisecond
	maxDebounce = 800 * time.Millisecond
)

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RateLimitPerMinute   int
	ContentAPIURL        string
	ContentAPIKey        string
	ContentAPITimeout    time.Duration
	ContentAPIPageSize   int
	CacheTTL             time.Duration
	Debounce             time.Duration
	SessionIdleTTL       time.Duration
	DistanceUnit         string
	PlaceholderLogoURL   string
	PlaceholderBannerURL string
	CategoryIconsFile    string
	PhoneDefaultRegion   string
	GeocoderURL          string
	GeocoderCountryCodes string
	GeocoderUserAgent    string
	GeocoderRate         float64
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	WarmInterval         time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool    { return c.CORSAllowCreds }
func (c *Config) GetRateLimitPerMinute() int { return c.RateLimitPerMinute }

// ContentAPIConfig implementation
func (c *Config) GetContentAPIURL() string            { return c.ContentAPIURL }
func (c *Config) GetContentAPIKey() string            { return c.ContentAPIKey }
func (c *Config) GetContentAPITimeout() time.Duration { return c.ContentAPITimeout }
func (c *Config) GetContentAPIPageSize() int          { return c.ContentAPIPageSize }

// CacheConfig implementation
func (c *Config) GetCacheTTL() time.Duration { return c.CacheTTL }
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) IsRedisEnabled() bool       { return c.RedisURL != "" }

// DirectoryConfig implementation
func (c *Config) GetDebounce() time.Duration       { return c.Debounce }
func (c *Config) GetSessionIdleTTL() time.Duration { return c.SessionIdleTTL }
func (c *Config) GetDistanceUnit() string          { return c.DistanceUnit }
func (c *Config) GetPlaceholderLogoURL() string    { return c.PlaceholderLogoURL }
func (c *Config) GetPlaceholderBannerURL() string  { return c.PlaceholderBannerURL }
func (c *Config) GetCategoryIconsFile() string     { return c.CategoryIconsFile }
func (c *Config) GetPhoneDefaultRegion() string    { return c.PhoneDefaultRegion }

// GeocoderConfig implementation
func (c *Config) GetGeocoderURL() string            { return c.GeocoderURL }
func (c *Config) GetGeocoderCountryCodes() string   { return c.GeocoderCountryCodes }
func (c *Config) GetGeocoderUserAgent() string      { return c.GeocoderUserAgent }
func (c *Config) GetGeocoderRatePerSecond() float64 { return c.GeocoderRate }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string      { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int       { return c.AsynqConcurrency }
func (c *Config) GetWarmInterval() time.Duration { return c.WarmInterval }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		RateLimitPerMinute:   mustInt(getEnv("RATE_LIMIT_PER_MINUTE", "240")),
		ContentAPIURL:        strings.TrimRight(getEnv("CONTENT_API_URL", ""), "/"),
		ContentAPIKey:        getEnv("CONTENT_API_KEY", ""),
		ContentAPITimeout:    mustDuration(getEnv("CONTENT_API_TIMEOUT", "10s")),
		ContentAPIPageSize:   mustInt(getEnv("CONTENT_API_PAGE_SIZE", "100")),
		CacheTTL:             mustDuration(getEnv("DIRECTORY_CACHE_TTL", "10m")),
		Debounce:             clampDuration(mustDuration(getEnv("DIRECTORY_DEBOUNCE", "700ms")), minDebounce, maxDebounce),
		SessionIdleTTL:       mustDuration(getEnv("DIRECTORY_SESSION_IDLE_TTL", "30m")),
		DistanceUnit:         strings.ToLower(getEnv("DIRECTORY_DISTANCE_UNIT", "km")),
		PlaceholderLogoURL:   getEnv("PLACEHOLDER_LOGO_URL", "/assets/placeholders/vendor-logo.png"),
		PlaceholderBannerURL: getEnv("PLACEHOLDER_BANNER_URL", "/assets/placeholders/vendor-banner.jpg"),
		CategoryIconsFile:    getEnv("CATEGORY_ICONS_FILE", ""),
		PhoneDefaultRegion:   strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
		GeocoderURL:          getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderCountryCodes: getEnv("GEOCODER_COUNTRY_CODES", ""),
		GeocoderUserAgent:    getEnv("GEOCODER_USER_AGENT", "StorefrontDirectory/1.0"),
		GeocoderRate:         mustFloat(getEnv("GEOCODER_RATE_PER_SECOND", "1")),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "2")),
		WarmInterval:         mustDuration(getEnv("DIRECTORY_WARM_INTERVAL", "9m")),
	}

	if cfg.ContentAPIURL == "" {
		return nil, fmt.Errorf("CONTENT_API_URL is required")
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("DIRECTORY_CACHE_TTL must be a positive duration")
	}
	if cfg.ContentAPITimeout <= 0 {
		return nil, fmt.Errorf("CONTENT_API_TIMEOUT must be a positive duration")
	}
	if cfg.ContentAPIPageSize < 1 {
		return nil, fmt.Errorf("CONTENT_API_PAGE_SIZE must be at least 1")
	}
	if cfg.DistanceUnit != "km" && cfg.DistanceUnit != "mi" {
		return nil, fmt.Errorf("DIRECTORY_DISTANCE_UNIT must be km or mi")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func clampDuration(value, lower, upper time.Duration) time.Duration {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
