package config

import (
	"fmt"
	"time"

	"codeclash/internal/protocol"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// ServerConfig represents the full server configuration
type ServerConfig struct {
	Server ServerSettings    `yaml:"server"`
	Match  protocol.Settings `yaml:"match"`
}

// ServerSettings contains server-wide settings
type ServerSettings struct {
	RoomTimeout       time.Duration `yaml:"roomTimeout"`
	AllowNegativeSkip bool          `yaml:"allowNegativeSkip"`
	ProblemLibrary    string        `yaml:"problemLibrary"` // path to a YAML problem set; empty uses the built-in set

	// Server settings
	Port            string        `yaml:"port" envconfig:"PORT" required:"true"`
	Host            string        `yaml:"host" envconfig:"HOST" required:"true"`
	PublicBaseURL   string        `yaml:"publicBaseUrl" envconfig:"PUBLIC_BASE_URL"` // used for join links and QR codes
	ReadTimeout     time.Duration `yaml:"readTimeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// Judge service
	JudgeURL string `yaml:"judgeUrl" envconfig:"JUDGE_URL"`

	// Player tokens
	TokenSecret string        `yaml:"tokenSecret" envconfig:"TOKEN_SECRET" required:"true"`
	TokenTTL    time.Duration `yaml:"tokenTtl" envconfig:"TOKEN_TTL" default:"12h"`

	// Persistence. Empty values fall back to in-process stores, which lose
	// state on restart.
	RedisAddr     string `yaml:"redisAddr" envconfig:"REDIS_ADDR"`
	RedisPassword string `yaml:"redisPassword" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redisDb" envconfig:"REDIS_DB"`
	ResultsDSN    string `yaml:"resultsDsn" envconfig:"RESULTS_DSN"`

	// Rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit" envconfig:"RATE_LIMIT" default:"10"`            // requests per second
	RateLimitBurst int     `yaml:"rateLimitBurst" envconfig:"RATE_LIMIT_BURST" default:"20"` // burst size

	// Request limits
	MaxRequestSize int64 `yaml:"maxRequestSize" envconfig:"MAX_REQUEST_SIZE" default:"1048576"` // 1MB

	// Monitoring
	EnableMetrics bool   `yaml:"enableMetrics" envconfig:"ENABLE_METRICS" default:"false"`
	MetricsPort   string `yaml:"metricsPort" envconfig:"METRICS_PORT"` // No default - must be set if metrics enabled
	LogLevel      string `yaml:"logLevel" envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string `yaml:"logFormat" envconfig:"LOG_FORMAT" default:"text"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			RoomTimeout:       30 * time.Minute,
			AllowNegativeSkip: false,

			// Server defaults
			Port:            "", // Must be set via env
			Host:            "", // Must be set via env
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,

			TokenTTL: 12 * time.Hour,

			// Rate limiting defaults
			RateLimit:      10, // 10 requests per second
			RateLimitBurst: 20,

			// Request limits
			MaxRequestSize: 1048576, // 1MB

			// Monitoring defaults
			EnableMetrics: false,
			MetricsPort:   "", // Must be set if metrics enabled
			LogLevel:      "info",
			LogFormat:     "text",
		},
		Match: protocol.DefaultSettings(),
	}
}

// Validate checks if the configuration is valid
func (c *ServerConfig) Validate() error {
	// Required fields
	if c.Server.Port == "" {
		return fmt.Errorf("PORT environment variable must be set")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("HOST environment variable must be set")
	}
	if c.Server.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET environment variable must be set")
	}

	// If metrics are enabled, port must be set
	if c.Server.EnableMetrics && c.Server.MetricsPort == "" {
		return fmt.Errorf("METRICS_PORT must be set when ENABLE_METRICS is true")
	}

	if c.Server.RoomTimeout < time.Minute {
		return fmt.Errorf("roomTimeout must be at least 1m")
	}
	if c.Server.TokenTTL < time.Minute {
		return fmt.Errorf("tokenTtl must be at least 1m")
	}

	if err := c.Match.Validate(); err != nil {
		return fmt.Errorf("invalid default match settings: %w", err)
	}

	return nil
}
