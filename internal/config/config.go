package config

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// History backends
const (
	HistoryBackendFile     = "file"
	HistoryBackendRedis    = "redis"
	HistoryBackendPostgres = "postgres"
)

// Config holds every setting the services read at start-up
type Config struct {
	PartnerBaseURL    string        `mapstructure:"PARTNER_BASE_URL"`
	PartnerAPIKey     string        `mapstructure:"PARTNER_API_KEY"`
	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT"`
	PaymentTimeout    time.Duration `mapstructure:"PAYMENT_TIMEOUT"`
	CatalogPageSize   int           `mapstructure:"CATALOG_PAGE_SIZE"`
	CatalogMaxPages   int           `mapstructure:"CATALOG_MAX_PAGES"`
	DetailConcurrency int           `mapstructure:"DETAIL_CONCURRENCY"`
	HistoryBackend    string        `mapstructure:"HISTORY_BACKEND"`
	HistoryFile       string        `mapstructure:"HISTORY_FILE"`
	HistoryKey        string        `mapstructure:"HISTORY_KEY"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	PostgresDSN       string        `mapstructure:"POSTGRES_DSN"`
	ListenAddr        string        `mapstructure:"LISTEN_ADDR"`
	EmulatorAddr      string        `mapstructure:"EMULATOR_ADDR"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]interface{}{
	"PARTNER_BASE_URL":   "http://localhost:8082",
	"PARTNER_API_KEY":    "",
	"HTTP_TIMEOUT":       "10s",
	"PAYMENT_TIMEOUT":    "30s",
	"CATALOG_PAGE_SIZE":  100,
	"CATALOG_MAX_PAGES":  10,
	"DETAIL_CONCURRENCY": 8,
	"HISTORY_BACKEND":    HistoryBackendFile,
	"HISTORY_FILE":       "order_history.json",
	"HISTORY_KEY":        "saved_orders",
	"REDIS_ADDR":         "localhost:6379",
	"POSTGRES_DSN":       "",
	"LISTEN_ADDR":        ":8080",
	"EMULATOR_ADDR":      ":8082",
	"LOG_LEVEL":          "info",
}

// Load reads configuration from the environment and, when configFile is not
// empty, from that file. Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	v.AutomaticEnv()

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cf.validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

func (c *Config) validate() error {
	if c.PartnerBaseURL == "" {
		return fmt.Errorf("PARTNER_BASE_URL is required")
	}
	if c.CatalogPageSize < 1 || c.CatalogPageSize > 100 {
		return fmt.Errorf("CATALOG_PAGE_SIZE must be between 1 and 100, got %d", c.CatalogPageSize)
	}
	if c.CatalogMaxPages < 1 || c.CatalogMaxPages > 10 {
		return fmt.Errorf("CATALOG_MAX_PAGES must be between 1 and 10, got %d", c.CatalogMaxPages)
	}
	if c.DetailConcurrency < 1 {
		c.DetailConcurrency = 1
	}

	c.HistoryBackend = strings.ToLower(c.HistoryBackend)
	switch c.HistoryBackend {
	case HistoryBackendFile, HistoryBackendRedis:
	case HistoryBackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres history backend")
		}
	default:
		return fmt.Errorf("unknown HISTORY_BACKEND %q", c.HistoryBackend)
	}
	return nil
}

// SetupLogger switches logrus to JSON output at the configured level
func SetupLogger(level string) {
	log.SetFormatter(&log.JSONFormatter{})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
