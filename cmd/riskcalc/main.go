// Command riskcalc runs a single risk assessment against a local TLE file and
// prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/signalsfoundry/orbital-risk/core"
	"github.com/signalsfoundry/orbital-risk/internal/api"
	"github.com/signalsfoundry/orbital-risk/internal/assessment"
	"github.com/signalsfoundry/orbital-risk/internal/catalog"
	"github.com/signalsfoundry/orbital-risk/internal/config"
	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/model"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "riskcalc: %v\n", err)
		}
		os.Exit(1)
	}
}

// staticCatalog serves a fixed object list.
type staticCatalog []model.TrackedObject

func (c staticCatalog) ListTrackedObjects(context.Context) ([]model.TrackedObject, error) {
	return c, nil
}

type options struct {
	configPath string
	tlePath    string
	mode       string
	logLevel   string

	height, area, years, cost, lost, vrel float64

	lat, lon, altitude, inclination float64
	rocketArea, lossCost            float64
	radius, ascent                  float64
	launchTime                      string

	minAlt, maxAlt, minIncl, maxIncl float64
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("riskcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", "", "YAML config supplying risk settings (optional)")
	fs.StringVar(&o.tlePath, "tle", "", "Path to a three-line TLE file (required)")
	fs.StringVar(&o.mode, "mode", "orbit", "Assessment to run: orbit, takeoff or congestion")
	fs.StringVar(&o.logLevel, "log-level", "warn", "Log level written to stderr")

	fs.Float64Var(&o.height, "height", 0, "orbit: operating altitude in km")
	fs.Float64Var(&o.area, "area", 0, "orbit: effective cross-section in m^2")
	fs.Float64Var(&o.years, "years", 0, "orbit: mission duration in years")
	fs.Float64Var(&o.cost, "cost", 0, "orbit: spacecraft replacement cost")
	fs.Float64Var(&o.lost, "lost", 0, "orbit: revenue lost on destruction")
	fs.Float64Var(&o.vrel, "vrel", 0, "orbit: relative velocity in km/s (0 uses the default)")

	fs.Float64Var(&o.lat, "lat", 0, "takeoff: launch site latitude in degrees")
	fs.Float64Var(&o.lon, "lon", 0, "takeoff: launch site longitude in degrees")
	fs.Float64Var(&o.altitude, "altitude", 0, "takeoff: target altitude in km")
	fs.Float64Var(&o.inclination, "inclination", 0, "takeoff: target inclination in degrees")
	fs.Float64Var(&o.rocketArea, "rocket-area", 0, "takeoff: rocket cross-section in m^2")
	fs.Float64Var(&o.lossCost, "loss-cost", 0, "takeoff: total loss cost")
	fs.Float64Var(&o.radius, "radius", 0, "takeoff: corridor radius in m (0 uses the default)")
	fs.Float64Var(&o.ascent, "ascent", 0, "takeoff: ascent time in s (0 sizes it from the trajectory)")
	fs.StringVar(&o.launchTime, "launch-time", "", "takeoff: RFC3339 launch epoch (default now)")

	fs.Float64Var(&o.minAlt, "min-alt", 0, "congestion: lower altitude bound in km")
	fs.Float64Var(&o.maxAlt, "max-alt", 0, "congestion: upper altitude bound in km")
	fs.Float64Var(&o.minIncl, "min-incl", 0, "congestion: lower inclination bound in degrees")
	fs.Float64Var(&o.maxIncl, "max-incl", 180, "congestion: upper inclination bound in degrees")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.tlePath == "" {
		return options{}, errors.New("-tle is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadAndValidate(o.configPath)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: o.logLevel, Format: cfg.Log.Format, Output: stderr})

	objs, err := loadCatalog(ctx, o.tlePath, log)
	if err != nil {
		return err
	}
	log.Info(ctx, "catalog loaded", logging.String("path", o.tlePath), logging.Int("objects", len(objs)))

	svc := assessment.NewService(staticCatalog(objs), core.NewSGP4Propagator(),
		assessment.WithSettings(assessment.Settings{
			ShellHalfWidthKm:           cfg.Risk.ShellHalfWidthKm,
			DefaultRelativeVelocityKmS: cfg.Risk.DefaultRelativeVelocityKmS,
			DefaultCorridorRadiusM:     cfg.Risk.DefaultCorridorRadiusM,
			CandidateMarginKm:          cfg.Risk.CandidateMarginKm,
			ConjunctionStepS:           cfg.Risk.ConjunctionStepS,
			MaxAscentTimeS:             cfg.Risk.MaxAscentTimeS,
		}),
		assessment.WithLogger(log),
	)

	result, err := assess(ctx, svc, o)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(api.Render(result))
}

func loadCatalog(ctx context.Context, path string, log logging.Logger) ([]model.TrackedObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open TLE file: %w", err)
	}
	defer f.Close()

	objs, skipped, err := catalog.Parse(ctx, f, log)
	if err != nil {
		return nil, fmt.Errorf("parse TLE file: %w", err)
	}
	if skipped > 0 {
		log.Warn(ctx, "skipped malformed TLE records", logging.Int("skipped", skipped))
	}
	return catalog.Dedupe(objs), nil
}

func assess(ctx context.Context, svc *assessment.Service, o options) (any, error) {
	switch o.mode {
	case assessment.KindOrbit:
		res, err := svc.OrbitRisk(ctx, assessment.OrbitRequest{
			HeightKm:            o.height,
			EffectiveAreaM2:     o.area,
			MissionYears:        o.years,
			SpacecraftCost:      o.cost,
			LostRevenue:         o.lost,
			RelativeVelocityKmS: o.vrel,
		})
		return res, err
	case assessment.KindTakeoff:
		var epoch time.Time
		if o.launchTime != "" {
			t, err := time.Parse(time.RFC3339, o.launchTime)
			if err != nil {
				return nil, fmt.Errorf("-launch-time: %w", err)
			}
			epoch = t
		}
		res, err := svc.TakeoffRisk(ctx, assessment.TakeoffRequest{
			Site:             model.LaunchSite{LatitudeDeg: o.lat, LongitudeDeg: o.lon},
			TargetAltitudeKm: o.altitude,
			InclinationDeg:   o.inclination,
			RocketAreaM2:     o.rocketArea,
			TotalLossCost:    o.lossCost,
			CorridorRadiusM:  o.radius,
			AscentTimeS:      o.ascent,
			LaunchEpoch:      epoch,
		})
		return res, err
	case assessment.KindCongestion:
		res, err := svc.Congestion(ctx, assessment.CongestionRequest{
			MinAltitudeKm:     o.minAlt,
			MaxAltitudeKm:     o.maxAlt,
			MinInclinationDeg: o.minIncl,
			MaxInclinationDeg: o.maxIncl,
		})
		return res, err
	default:
		return nil, fmt.Errorf("unknown mode %q (want orbit, takeoff or congestion)", o.mode)
	}
}
