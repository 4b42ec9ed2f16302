// Package config provides structures and utilities for managing the swell
// application configuration.
package config

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

// RetryConfig holds configuration for the remote transport retry mechanism.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, first try included.
	MaxAttempts int `yaml:"max_attempts"`
	// InitialInterval is the initial backoff interval in milliseconds.
	InitialInterval int `yaml:"initial_interval"`
	// MaxInterval is the maximum backoff interval in milliseconds.
	MaxInterval int `yaml:"max_interval"`
	// Factor is the factor by which the interval grows between attempts.
	Factor float64 `yaml:"factor"`
}

// RemoteConfig holds configuration for the Remote Workflow Client.
type RemoteConfig struct {
	// BaseURL is the base URL of the remote modeling service.
	BaseURL string `yaml:"base_url"`
	// RequestTimeoutSeconds bounds a single request including retries.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
	// PollingIntervalSeconds is the interval between workflow status polls.
	PollingIntervalSeconds int `yaml:"polling_interval_seconds"`
	// PollingTimeoutSeconds is the overall deadline for a polling loop.
	PollingTimeoutSeconds int `yaml:"polling_timeout_seconds"`
	// PageSize is the maximum number of workflow ids per batch status call.
	PageSize int `yaml:"page_size"`
	// Retry is the transport retry configuration.
	Retry RetryConfig `yaml:"retry"`
}

// OrchestrationConfig holds configuration for the tracking scheduler.
type OrchestrationConfig struct {
	// TrackingIntervalSeconds is the scheduler's tick interval.
	TrackingIntervalSeconds int `yaml:"tracking_interval_seconds"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
}

// DatabaseConfig holds the relational store connection settings.
type DatabaseConfig struct {
	// Type selects the backend: "postgres", "mysql", or "sqlite".
	Type     string     `yaml:"type"`
	Host     string     `yaml:"host"`
	Port     int        `yaml:"port"`
	Database string     `yaml:"database"`
	User     string     `yaml:"user"`
	Password string     `yaml:"password"`
	SSLMode  string     `yaml:"sslmode"`
	Pool     PoolConfig `yaml:"pool"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// SwellConfig holds all configuration under the "swell" top-level key.
type SwellConfig struct {
	Orchestration OrchestrationConfig `yaml:"orchestration"`
	Remote        RemoteConfig        `yaml:"remote"`
	Database      DatabaseConfig      `yaml:"database"`
	System        SystemConfig        `yaml:"system"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Swell SwellConfig `yaml:"swell"`
}

// NewConfig returns a Config populated with defaults. The remote defaults
// mirror the service contract: 5 transport attempts and a 200 second request
// timeout, at most 100 workflow ids per batch status call.
func NewConfig() *Config {
	return &Config{
		Swell: SwellConfig{
			Orchestration: OrchestrationConfig{
				TrackingIntervalSeconds: 30,
			},
			Remote: RemoteConfig{
				RequestTimeoutSeconds:  200,
				PollingIntervalSeconds: 10,
				PollingTimeoutSeconds:  3600,
				PageSize:               100,
				Retry: RetryConfig{
					MaxAttempts:     5,
					InitialInterval: 500,
					MaxInterval:     10000,
					Factor:          2.0,
				},
			},
			Database: DatabaseConfig{
				Type: "sqlite",
				Pool: PoolConfig{
					MaxOpenConns: 10,
					MaxIdleConns: 5,
				},
			},
			System: SystemConfig{
				Logging: LoggingConfig{Level: "INFO"},
			},
		},
	}
}
