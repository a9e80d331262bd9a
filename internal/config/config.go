// Package config provides configuration management for the Courtside
// simulation engine.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	StatsAPI   StatsAPIConfig   `mapstructure:"stats_api" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Training   TrainingConfig   `mapstructure:"training" validate:"required"`
	Posterior  PosteriorConfig  `mapstructure:"posterior" validate:"required"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	Sport       string `mapstructure:"sport" validate:"required,sport"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// StatsAPIConfig represents the upstream play-by-play provider configuration
type StatsAPIConfig struct {
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"required,gte=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `mapstructure:"burst" validate:"required,gt=0"`
}

// SimulationConfig represents Monte Carlo simulation configuration
type SimulationConfig struct {
	Iterations   int  `mapstructure:"iterations" validate:"required,gt=0"`
	Possessions  int  `mapstructure:"possessions" validate:"required,gt=0"`
	MaxOrebChain int  `mapstructure:"max_oreb_chain" validate:"required,gt=0"`
	KeepScores   bool `mapstructure:"keep_scores"`
}

// TrainingConfig represents contrastive pretraining configuration
type TrainingConfig struct {
	LearningRate       float64 `mapstructure:"learning_rate" validate:"required,gt=0"`
	BatchSize          int     `mapstructure:"batch_size" validate:"required,gt=0"`
	Negatives          int     `mapstructure:"negatives" validate:"required,gt=0"`
	Temperature        float64 `mapstructure:"temperature" validate:"required,gt=0"`
	InfoNCEWeightMin   float64 `mapstructure:"infonce_weight_min" validate:"required,gt=0"`
	InfoNCEWeightMax   float64 `mapstructure:"infonce_weight_max" validate:"required,gt=0"`
	InfoNCEWarmupSteps int     `mapstructure:"infonce_warmup_steps" validate:"required,gt=0"`
	CacheTTLSeconds    int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize       int     `mapstructure:"cache_max_size" validate:"required,gt=0"`
}

// PosteriorConfig represents Bayesian posterior update configuration
type PosteriorConfig struct {
	LearningRate      float64 `mapstructure:"learning_rate" validate:"required,gt=0"`
	BaseSigma         float64 `mapstructure:"base_sigma" validate:"required,gt=0"`
	ErrorScale        float64 `mapstructure:"error_scale" validate:"gte=0"`
	LikelihoodWeight  float64 `mapstructure:"likelihood_weight" validate:"required,gt=0,lte=1"`
	MeanShrink        float64 `mapstructure:"mean_shrink" validate:"required,gt=0,lte=1"`
	VarianceInflation float64 `mapstructure:"variance_inflation" validate:"required,gte=1"`
}

// IngestionConfig represents scheduled label ingestion configuration
type IngestionConfig struct {
	Season            string `mapstructure:"season" validate:"required"`
	LabelSchedule     string `mapstructure:"label_schedule" validate:"required"`
	CacheRefreshEvery string `mapstructure:"cache_refresh_every" validate:"required"`
	BatchSize         int    `mapstructure:"batch_size" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
