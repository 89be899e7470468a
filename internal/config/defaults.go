package config

import (
	"time"

	"github.com/signalsfoundry/orbital-risk/internal/catalog"
	"github.com/signalsfoundry/orbital-risk/internal/observability"
)

// Default values for optional configuration fields.
const (
	DefaultHTTPAddr        = ":5000"
	DefaultGRPCAddr        = ":50051"
	DefaultMetricsAddr     = ":9090"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultCacheWindow      = catalog.DefaultCacheWindow
	DefaultBackend          = "file"
	DefaultCacheFile        = "/tmp/tle_cache.json"
	DefaultRedisKey         = "orbitrisk:catalog"
	DefaultRequestTimeout   = 90 * time.Second
	DefaultFetchConcurrency = 2

	DefaultShellHalfWidthKm    = 50.0
	DefaultRelativeVelocityKmS = 12.5
	DefaultCorridorRadiusM     = 25000.0
	DefaultCandidateMarginKm   = 200.0
	DefaultConjunctionStepS    = 10.0
	DefaultMaxAscentTimeS      = 6000.0
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	// Server
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = DefaultGRPCAddr
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = DefaultMetricsAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Logging
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	// Tracing
	def := observability.DefaultTracingConfig()
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = def.ServiceName
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = def.Exporter
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = def.SampleRatio
	}

	// Catalog
	if c.Catalog.CacheWindow == 0 {
		c.Catalog.CacheWindow = DefaultCacheWindow
	}
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = DefaultBackend
	}
	if c.Catalog.CacheFile == "" {
		c.Catalog.CacheFile = DefaultCacheFile
	}
	if c.Catalog.RedisKey == "" {
		c.Catalog.RedisKey = DefaultRedisKey
	}
	if c.Catalog.RequestTimeout == 0 {
		c.Catalog.RequestTimeout = DefaultRequestTimeout
	}
	if c.Catalog.FetchConcurrency == 0 {
		c.Catalog.FetchConcurrency = DefaultFetchConcurrency
	}
	if len(c.Catalog.Groups) == 0 {
		c.Catalog.Groups = catalog.DefaultGroups()
	}

	// Risk
	if c.Risk.ShellHalfWidthKm == 0 {
		c.Risk.ShellHalfWidthKm = DefaultShellHalfWidthKm
	}
	if c.Risk.DefaultRelativeVelocityKmS == 0 {
		c.Risk.DefaultRelativeVelocityKmS = DefaultRelativeVelocityKmS
	}
	if c.Risk.DefaultCorridorRadiusM == 0 {
		c.Risk.DefaultCorridorRadiusM = DefaultCorridorRadiusM
	}
	if c.Risk.CandidateMarginKm == 0 {
		c.Risk.CandidateMarginKm = DefaultCandidateMarginKm
	}
	if c.Risk.ConjunctionStepS == 0 {
		c.Risk.ConjunctionStepS = DefaultConjunctionStepS
	}
	if c.Risk.MaxAscentTimeS == 0 {
		c.Risk.MaxAscentTimeS = DefaultMaxAscentTimeS
	}
}
