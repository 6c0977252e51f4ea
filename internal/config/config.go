package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Keycloak   KeycloakConfig
	Redis      RedisConfig
	Monitoring MonitoringConfig
	Tracking   TrackingConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	TelemetryDB PostgresConfig `mapstructure:"telemetrydb"`
	AppDB       PostgresConfig `mapstructure:"postgres_app"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MonitoringConfig struct {
	PrometheusPort     int    `mapstructure:"prometheus_port"`
	LogLevel           string `mapstructure:"log_level"`
	PrometheusEndpoint string `mapstructure:"prometheus_endpoint"`
	LokiEndpoint       string `mapstructure:"loki_endpoint"`
}

// TrackingConfig tunes the telemetry/archival subsystem: session caps, the
// daily compliance target and the background job cadences.
type TrackingConfig struct {
	TargetHours      float64       `mapstructure:"target_hours"`
	LocationCap      int           `mapstructure:"location_cap"`
	PlaybackCap      int           `mapstructure:"playback_cap"`
	DefaultTimezone  string        `mapstructure:"default_timezone"`
	AccrualInterval  time.Duration `mapstructure:"accrual_interval"`
	ArchiveInterval  time.Duration `mapstructure:"archive_interval"`
	RollupInterval   time.Duration `mapstructure:"rollup_interval"`
	RollupWindowDays int           `mapstructure:"rollup_window_days"`
	RetryAttempts    int           `mapstructure:"retry_attempts"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("ADMOVA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.telemetrydb.sslmode", "disable")
	viper.SetDefault("database.postgres_app.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.db", 0)

	// Monitoring defaults
	viper.SetDefault("monitoring.prometheus_port", 9090)
	viper.SetDefault("monitoring.log_level", "info")
	viper.SetDefault("monitoring.prometheus_endpoint", "http://localhost:9090")
	viper.SetDefault("monitoring.loki_endpoint", "http://localhost:3100")

	// Tracking defaults
	viper.SetDefault("tracking.target_hours", 8.0)
	viper.SetDefault("tracking.location_cap", 960)
	viper.SetDefault("tracking.playback_cap", 800)
	viper.SetDefault("tracking.default_timezone", "UTC")
	viper.SetDefault("tracking.accrual_interval", "30s")
	viper.SetDefault("tracking.archive_interval", "5m")
	viper.SetDefault("tracking.rollup_interval", "15m")
	viper.SetDefault("tracking.rollup_window_days", 30)
	viper.SetDefault("tracking.retry_attempts", 3)
	viper.SetDefault("tracking.retry_backoff", "50ms")
}

func validateConfig(config *Config) error {
	if config.Database.TelemetryDB.Host == "" {
		return fmt.Errorf("telemetrydb host is required")
	}
	if config.Database.AppDB.Host == "" {
		return fmt.Errorf("postgres app host is required")
	}
	if config.Keycloak.URL == "" {
		return fmt.Errorf("keycloak URL is required")
	}
	if config.Tracking.TargetHours <= 0 || config.Tracking.TargetHours > 24 {
		return fmt.Errorf("tracking target_hours must be in (0, 24]")
	}
	if config.Tracking.LocationCap <= 0 || config.Tracking.PlaybackCap <= 0 {
		return fmt.Errorf("tracking caps must be positive")
	}
	if config.Tracking.RetryAttempts <= 0 {
		return fmt.Errorf("tracking retry_attempts must be positive")
	}
	return nil
}
