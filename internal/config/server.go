package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the settings of the HTTP server and its collaborators.
// Empty DBConn and RedisAddr select the in-memory store and cache.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	LogLevel     string        `yaml:"log_level"`
	DBConn       string        `yaml:"db_conn"`
	RedisAddr    string        `yaml:"redis_addr"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	BaseCurrency string        `yaml:"base_currency"`
	RatesURL     string        `yaml:"rates_url"`
	RatesFormat  string        `yaml:"rates_format"`
	RatesRefresh string        `yaml:"rates_refresh"`
	PlanFile     string        `yaml:"plan_file"`
	RateLimit    int           `yaml:"rate_limit"`
	RateWindow   time.Duration `yaml:"rate_window"`
}

// NewServerConfig loads configuration from environment variables
func NewServerConfig() (*ServerConfig, error) {
	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}
	window, err := time.ParseDuration(getEnv("RATE_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("RATE_WINDOW: %w", err)
	}
	limit, err := strconv.Atoi(getEnv("RATE_LIMIT", "60"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT: %w", err)
	}

	cfg := &ServerConfig{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		DBConn:       getEnv("DB_CONN", ""),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		CacheTTL:     ttl,
		BaseCurrency: getEnv("BASE_CURRENCY", "USD"),
		RatesURL:     getEnv("RATES_URL", ""),
		RatesFormat:  getEnv("RATES_FORMAT", "json"),
		RatesRefresh: getEnv("RATES_REFRESH", "0 6 * * *"),
		PlanFile:     getEnv("PLAN_FILE", ""),
		RateLimit:    limit,
		RateWindow:   window,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOverlay applies non-empty values from a YAML file on top of cfg.
func (c *ServerConfig) LoadOverlay(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var overlay ServerConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	setString(&c.Port, overlay.Port)
	setString(&c.LogLevel, overlay.LogLevel)
	setString(&c.DBConn, overlay.DBConn)
	setString(&c.RedisAddr, overlay.RedisAddr)
	setString(&c.BaseCurrency, overlay.BaseCurrency)
	setString(&c.RatesURL, overlay.RatesURL)
	setString(&c.RatesFormat, overlay.RatesFormat)
	setString(&c.RatesRefresh, overlay.RatesRefresh)
	setString(&c.PlanFile, overlay.PlanFile)
	if overlay.CacheTTL > 0 {
		c.CacheTTL = overlay.CacheTTL
	}
	if overlay.RateLimit > 0 {
		c.RateLimit = overlay.RateLimit
	}
	if overlay.RateWindow > 0 {
		c.RateWindow = overlay.RateWindow
	}

	return c.Validate()
}

// Validate checks the configuration for values the server cannot start with.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	c.BaseCurrency = strings.ToUpper(c.BaseCurrency)
	if len(c.BaseCurrency) != 3 {
		return fmt.Errorf("BASE_CURRENCY must be a three letter code, got %q", c.BaseCurrency)
	}
	switch c.RatesFormat {
	case "json", "ecb":
	default:
		return fmt.Errorf("RATES_FORMAT must be json or ecb, got %q", c.RatesFormat)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT cannot be negative")
	}
	return nil
}

// NewLogger builds the JSON logrus logger used by the server and CLI.
// Unknown levels fall back to info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
