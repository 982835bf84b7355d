package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Agent    AgentConfig    `mapstructure:"agent" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AgentConfig contains settings for the external agent runtime that
// interprets requests and performs vendor outreach. The runtime URL is
// required: startup fails without it rather than substituting a default.
type AgentConfig struct {
	RuntimeURL     string `mapstructure:"runtime_url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// WorkerConfig contains settings for the background outreach worker pool.
type WorkerConfig struct {
	Count                int `mapstructure:"count" validate:"required,gt=0"`
	QueueSize            int `mapstructure:"queue_size" validate:"required,gt=0"`
	StuckJobAgeMinutes   int `mapstructure:"stuck_job_age_minutes" validate:"gte=0"`
	StuckJobCheckMinutes int `mapstructure:"stuck_job_check_minutes" validate:"gte=0"`
}
