// Package config loads the risk service configuration from YAML.
package config

import (
	"time"

	"github.com/signalsfoundry/orbital-risk/internal/catalog"
	"github.com/signalsfoundry/orbital-risk/internal/observability"
)

// Config is the root configuration for riskd and riskcalc.
type Config struct {
	Server  ServerConfig                `yaml:"server"`
	Log     LogConfig                   `yaml:"log"`
	Tracing observability.TracingConfig `yaml:"tracing"`
	Catalog CatalogConfig               `yaml:"catalog"`
	Risk    RiskConfig                  `yaml:"risk"`
}

// ServerConfig holds listener addresses.
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// CatalogConfig controls TLE acquisition and snapshot persistence.
type CatalogConfig struct {
	CacheWindow      time.Duration   `yaml:"cache_window"`
	Backend          string          `yaml:"backend"` // file | redis | none
	CacheFile        string          `yaml:"cache_file"`
	RedisURL         string          `yaml:"redis_url"`
	RedisKey         string          `yaml:"redis_key"`
	RequestTimeout   time.Duration   `yaml:"request_timeout"`
	FetchConcurrency int             `yaml:"fetch_concurrency"`
	Groups           []catalog.Group `yaml:"groups"`
}

// RiskConfig holds assessment defaults.
type RiskConfig struct {
	ShellHalfWidthKm           float64 `yaml:"shell_half_width_km"`
	DefaultRelativeVelocityKmS float64 `yaml:"default_relative_velocity_km_s"`
	DefaultCorridorRadiusM     float64 `yaml:"default_corridor_radius_m"`
	CandidateMarginKm          float64 `yaml:"candidate_margin_km"`
	ConjunctionStepS           float64 `yaml:"conjunction_step_s"`
	MaxAscentTimeS             float64 `yaml:"max_ascent_time_s"`
}
