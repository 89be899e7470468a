package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return errors.New("server.http_addr is required")
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must be >= 0")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	switch strings.ToLower(c.Tracing.Exporter) {
	case "stdout", "otlp", "otlpgrpc":
	default:
		return fmt.Errorf("tracing.exporter must be stdout or otlp, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1, got %g", c.Tracing.SampleRatio)
	}

	if err := c.Catalog.validate("catalog"); err != nil {
		return err
	}
	return c.Risk.validate("risk")
}

func (cc *CatalogConfig) validate(prefix string) error {
	if cc.CacheWindow <= 0 {
		return fmt.Errorf("%s.cache_window must be > 0", prefix)
	}
	switch cc.Backend {
	case "file":
		if cc.CacheFile == "" {
			return fmt.Errorf("%s.cache_file is required for the file backend", prefix)
		}
	case "redis":
		if cc.RedisURL == "" {
			return fmt.Errorf("%s.redis_url is required for the redis backend", prefix)
		}
	case "none":
	default:
		return fmt.Errorf("%s.backend must be file, redis or none, got %q", prefix, cc.Backend)
	}
	if cc.RequestTimeout <= 0 {
		return fmt.Errorf("%s.request_timeout must be > 0", prefix)
	}
	if cc.FetchConcurrency < 1 {
		return fmt.Errorf("%s.fetch_concurrency must be >= 1", prefix)
	}
	seen := make(map[string]bool, len(cc.Groups))
	for i, g := range cc.Groups {
		if g.Name == "" {
			return fmt.Errorf("%s.groups[%d].name is required", prefix, i)
		}
		if g.URL == "" {
			return fmt.Errorf("%s.groups[%d].url is required", prefix, i)
		}
		if seen[g.Name] {
			return fmt.Errorf("%s.groups[%d].name %q is duplicated", prefix, i, g.Name)
		}
		seen[g.Name] = true
	}
	return nil
}

func (rc *RiskConfig) validate(prefix string) error {
	if rc.ShellHalfWidthKm <= 0 {
		return fmt.Errorf("%s.shell_half_width_km must be > 0", prefix)
	}
	if rc.DefaultRelativeVelocityKmS <= 0 {
		return fmt.Errorf("%s.default_relative_velocity_km_s must be > 0", prefix)
	}
	if rc.DefaultCorridorRadiusM <= 0 {
		return fmt.Errorf("%s.default_corridor_radius_m must be > 0", prefix)
	}
	if rc.CandidateMarginKm < 0 {
		return fmt.Errorf("%s.candidate_margin_km must be >= 0", prefix)
	}
	if rc.ConjunctionStepS <= 0 {
		return fmt.Errorf("%s.conjunction_step_s must be > 0", prefix)
	}
	if !(rc.MaxAscentTimeS > 0) {
		return fmt.Errorf("%s.max_ascent_time_s must be > 0", prefix)
	}
	return nil
}
