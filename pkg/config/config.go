package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the Med-Aid platform services
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Upstream price aggregator configuration
	Upstream UpstreamConfig `mapstructure:"upstream"`

	// Autocomplete search index configuration
	Search SearchConfig `mapstructure:"search"`

	// Prescription OCR configuration
	OCR OCRConfig `mapstructure:"ocr"`

	// Notification delivery configuration
	Notify NotifyConfig `mapstructure:"notify"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// UpstreamConfig holds the price aggregator stream configuration.
// Durations are in seconds except FlushInterval which allows sub-minute tuning.
type UpstreamConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	AttemptTimeout int    `mapstructure:"attempt_timeout"`
	IdleTimeout    int    `mapstructure:"idle_timeout"`
	FlushInterval  int    `mapstructure:"flush_interval"`
	BackoffBase    int    `mapstructure:"backoff_base"`
}

// AttemptTimeoutDuration returns the per-attempt connect timeout
func (u *UpstreamConfig) AttemptTimeoutDuration() time.Duration {
	return time.Duration(u.AttemptTimeout) * time.Second
}

// IdleTimeoutDuration returns the relay idle-watchdog window
func (u *UpstreamConfig) IdleTimeoutDuration() time.Duration {
	return time.Duration(u.IdleTimeout) * time.Second
}

// FlushIntervalDuration returns the relay periodic flush interval
func (u *UpstreamConfig) FlushIntervalDuration() time.Duration {
	return time.Duration(u.FlushInterval) * time.Second
}

// BackoffBaseDuration returns the base retry backoff delay
func (u *UpstreamConfig) BackoffBaseDuration() time.Duration {
	return time.Duration(u.BackoffBase) * time.Second
}

// SearchConfig holds the hosted autocomplete index configuration
type SearchConfig struct {
	AppID         string `mapstructure:"app_id"`
	APIKey        string `mapstructure:"api_key"`
	MedicineIndex string `mapstructure:"medicine_index"`
	LabIndex      string `mapstructure:"lab_index"`
	Endpoint      string `mapstructure:"endpoint"`
}

// OCRConfig holds the prescription OCR service configuration
type OCRConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Timeout  int    `mapstructure:"timeout"`
}

// NotifyConfig holds notification provider configuration
type NotifyConfig struct {
	TelegramToken    string `mapstructure:"telegram_token"`
	WhatsAppEndpoint string `mapstructure:"whatsapp_endpoint"`
	WhatsAppToken    string `mapstructure:"whatsapp_token"`
	PushPublicKey    string `mapstructure:"push_public_key"`
	PushPrivateKey   string `mapstructure:"push_private_key"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/medaid")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(&config)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	// Long write timeout: the price stream stays open well past normal
	// request/response cycles.
	viper.SetDefault("server.write_timeout", 300)
	viper.SetDefault("server.idle_timeout", 120)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "medaid")
	viper.SetDefault("database.user", "medaid")
	viper.SetDefault("database.ssl_mode", "require")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	// Upstream aggregator defaults
	viper.SetDefault("upstream.max_attempts", 3)
	viper.SetDefault("upstream.attempt_timeout", 60)
	viper.SetDefault("upstream.idle_timeout", 60)
	viper.SetDefault("upstream.flush_interval", 5)
	viper.SetDefault("upstream.backoff_base", 1)

	// Search defaults
	viper.SetDefault("search.medicine_index", "medicines")
	viper.SetDefault("search.lab_index", "lab_tests")

	// OCR defaults
	viper.SetDefault("ocr.timeout", 30)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if baseURL := os.Getenv("MEDPRICE_UPSTREAM_URL"); baseURL != "" {
		config.Upstream.BaseURL = baseURL
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Notify.TelegramToken = token
	}

	if key := os.Getenv("OCR_API_KEY"); key != "" {
		config.OCR.APIKey = key
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Upstream.MaxAttempts <= 0 {
		return fmt.Errorf("upstream max attempts must be positive, got %d", config.Upstream.MaxAttempts)
	}

	if config.Upstream.FlushInterval <= 0 {
		return fmt.Errorf("upstream flush interval must be positive, got %d", config.Upstream.FlushInterval)
	}

	if config.Upstream.IdleTimeout <= 0 {
		return fmt.Errorf("upstream idle timeout must be positive, got %d", config.Upstream.IdleTimeout)
	}

	return nil
}
