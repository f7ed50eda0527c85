package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/assets"
	"github.com/maltedev/aliexpress-scraper/internal/browser"
	"github.com/maltedev/aliexpress-scraper/internal/database"
)

type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Assets    AssetsConfig
	Prices    PricesConfig
	Tracking  TrackingConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Relay     RelayConfig
	Telemetry TelemetryConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type BrowserConfig struct {
	Headless          bool
	Locale            string
	TimezoneID        string
	AcceptLanguage    string
	NavigationTimeout time.Duration
	Proxy             string
}

type AssetsConfig struct {
	Dir          string
	PublicPrefix string
	BatchSize    int
	Timeout      time.Duration
}

type PricesConfig struct {
	ItemDelayMin time.Duration
	ItemDelayMax time.Duration
}

type TrackingConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

type TelemetryConfig struct {
	ServiceName   string
	TraceEndpoint string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntOrDefault("SERVER_PORT", 8080),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 10*time.Minute),
			RequestTimeout:  getDurationOrDefault("SERVER_REQUEST_TIMEOUT", 10*time.Minute),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Browser: BrowserConfig{
			Headless:          getBoolOrDefault("BROWSER_HEADLESS", true),
			Locale:            getEnvOrDefault("BROWSER_LOCALE", "es-ES"),
			TimezoneID:        getEnvOrDefault("BROWSER_TIMEZONE", "Europe/Madrid"),
			AcceptLanguage:    getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "es-ES,es;q=0.9,en;q=0.8"),
			NavigationTimeout: getDurationOrDefault("BROWSER_NAV_TIMEOUT", 60*time.Second),
			Proxy:             getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Assets: AssetsConfig{
			Dir:          getEnvOrDefault("ASSETS_DIR", "uploads"),
			PublicPrefix: getEnvOrDefault("ASSETS_PUBLIC_PREFIX", "/uploads"),
			BatchSize:    getIntOrDefault("ASSETS_BATCH_SIZE", 5),
			Timeout:      getDurationOrDefault("ASSETS_TIMEOUT", 15*time.Second),
		},
		Prices: PricesConfig{
			ItemDelayMin: getDurationOrDefault("PRICES_ITEM_DELAY_MIN", 0),
			ItemDelayMax: getDurationOrDefault("PRICES_ITEM_DELAY_MAX", 0),
		},
		Tracking: TrackingConfig{
			CacheSize: getIntOrDefault("TRACKING_CACHE_SIZE", 256),
			CacheTTL:  getDurationOrDefault("TRACKING_CACHE_TTL", 10*time.Minute),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "aliexpress_scraper"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Relay: RelayConfig{
			PollInterval: getDurationOrDefault("RELAY_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getIntOrDefault("RELAY_BATCH_SIZE", 100),
		},
		Telemetry: TelemetryConfig{
			ServiceName:   getEnvOrDefault("OTEL_SERVICE_NAME", "aliexpress-scraper"),
			TraceEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", ""),
		},
		Logging: LoggingConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("BROWSER_NAV_TIMEOUT must be positive")
	}

	if strings.TrimSpace(c.Assets.Dir) == "" {
		return fmt.Errorf("ASSETS_DIR must not be empty")
	}

	if c.Assets.BatchSize < 1 {
		return fmt.Errorf("ASSETS_BATCH_SIZE must be at least 1")
	}

	if c.Prices.ItemDelayMin > c.Prices.ItemDelayMax {
		return fmt.Errorf("PRICES_ITEM_DELAY_MIN cannot be greater than PRICES_ITEM_DELAY_MAX")
	}

	if c.Tracking.CacheSize < 0 {
		return fmt.Errorf("TRACKING_CACHE_SIZE must not be negative")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required when DB_ENABLED is set")
		}
		if c.Relay.BatchSize < 1 {
			return fmt.Errorf("RELAY_BATCH_SIZE must be at least 1")
		}
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SessionConfig applies the browser settings on top of the default fingerprint.
func (c *Config) SessionConfig() browser.SessionConfig {
	sc := browser.DefaultSessionConfig().WithHeadless(c.Browser.Headless)
	sc.Locale = c.Browser.Locale
	sc.TimezoneID = c.Browser.TimezoneID
	sc.NavigationTimeout = c.Browser.NavigationTimeout
	sc.ProxyServer = c.Browser.Proxy
	sc.Headers["Accept-Language"] = c.Browser.AcceptLanguage
	return sc
}

func (c *Config) AssetsConfig() assets.Config {
	ac := assets.DefaultConfig()
	ac.Dir = c.Assets.Dir
	ac.PublicPrefix = c.Assets.PublicPrefix
	ac.BatchSize = c.Assets.BatchSize
	ac.Timeout = c.Assets.Timeout
	return ac
}

func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.Name,
		SSLMode:  c.Database.SSLMode,
		MaxConns: c.Database.MaxConns,
	}
}

func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
