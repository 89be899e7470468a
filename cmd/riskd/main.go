package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/signalsfoundry/orbital-risk/core"
	"github.com/signalsfoundry/orbital-risk/internal/api"
	"github.com/signalsfoundry/orbital-risk/internal/assessment"
	"github.com/signalsfoundry/orbital-risk/internal/catalog"
	"github.com/signalsfoundry/orbital-risk/internal/config"
	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/internal/observability"
	"github.com/signalsfoundry/orbital-risk/kb"
	"github.com/signalsfoundry/orbital-risk/timectrl"
)

// healthService is the gRPC health service name reported for the risk API.
const healthService = "orbitrisk.RiskService"

// Listeners are the sockets riskd serves on. A nil Metrics listener disables
// the metrics endpoint.
type Listeners struct {
	HTTP    net.Listener
	GRPC    net.Listener
	Metrics net.Listener
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riskd: %v\n", err)
		os.Exit(1)
	}
	cfg.Tracing = cfg.Tracing.ApplyEnv()

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	lis, err := listen(cfg.Server)
	if err != nil {
		log.Error(ctx, "failed to listen", logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "riskd exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func listen(sc config.ServerConfig) (Listeners, error) {
	var (
		lis Listeners
		err error
	)
	if lis.HTTP, err = net.Listen("tcp", sc.HTTPAddr); err != nil {
		return Listeners{}, fmt.Errorf("http %s: %w", sc.HTTPAddr, err)
	}
	if lis.GRPC, err = net.Listen("tcp", sc.GRPCAddr); err != nil {
		_ = lis.HTTP.Close()
		return Listeners{}, fmt.Errorf("grpc %s: %w", sc.GRPCAddr, err)
	}
	if sc.MetricsAddr != "" {
		if lis.Metrics, err = net.Listen("tcp", sc.MetricsAddr); err != nil {
			_ = lis.HTTP.Close()
			_ = lis.GRPC.Close()
			return Listeners{}, fmt.Errorf("metrics %s: %w", sc.MetricsAddr, err)
		}
	}
	return lis, nil
}

// run serves until ctx is cancelled or a server fails, then shuts every
// server down within cfg.Server.ShutdownTimeout.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, lis Listeners) error {
	collector, err := observability.NewRiskCollector(nil)
	if err != nil {
		return fmt.Errorf("metrics collector: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	defer closeStore()

	catalogKB := kb.NewKnowledgeBase()
	unsubscribe := catalogKB.Subscribe(func(e kb.Event) {
		collector.SetCatalogObjects(e.Count)
	})
	defer unsubscribe()

	catalogSvc := catalog.NewService(
		catalog.NewFetcher(cfg.Catalog.RequestTimeout),
		catalog.WithGroups(cfg.Catalog.Groups),
		catalog.WithStore(store),
		catalog.WithKnowledgeBase(catalogKB),
		catalog.WithCacheWindow(cfg.Catalog.CacheWindow),
		catalog.WithFetchConcurrency(cfg.Catalog.FetchConcurrency),
		catalog.WithLogger(log.With(logging.String("component", "catalog"))),
		catalog.WithRefreshRecorder(collector),
	)

	assessor := assessment.NewService(catalogSvc, core.NewSGP4Propagator(),
		assessment.WithSettings(assessment.Settings{
			ShellHalfWidthKm:           cfg.Risk.ShellHalfWidthKm,
			DefaultRelativeVelocityKmS: cfg.Risk.DefaultRelativeVelocityKmS,
			DefaultCorridorRadiusM:     cfg.Risk.DefaultCorridorRadiusM,
			CandidateMarginKm:          cfg.Risk.CandidateMarginKm,
			ConjunctionStepS:           cfg.Risk.ConjunctionStepS,
			MaxAscentTimeS:             cfg.Risk.MaxAscentTimeS,
		}),
		assessment.WithLogger(log.With(logging.String("component", "assessment"))),
		assessment.WithMetrics(collector),
	)

	httpSrv := &http.Server{
		Handler:           api.NewRouter(api.New(assessor, log), collector.Middleware),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(collector.UnaryServerInterceptor()),
	)
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(healthService, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	var metricsSrv *http.Server
	if lis.Metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	refresher := timectrl.NewTimeController(nil, cfg.Catalog.CacheWindow)
	refresher.AddListener(func(ctx context.Context, at time.Time) {
		if err := catalogSvc.Refresh(ctx); err != nil {
			log.Warn(ctx, "scheduled catalog refresh failed", logging.Err(err))
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "serving HTTP API", logging.String("addr", lis.HTTP.Addr().String()))
		if err := httpSrv.Serve(lis.HTTP); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info(gctx, "serving gRPC health", logging.String("addr", lis.GRPC.Addr().String()))
		if err := grpcSrv.Serve(lis.GRPC); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	if metricsSrv != nil {
		g.Go(func() error {
			log.Info(gctx, "serving Prometheus metrics", logging.String("addr", lis.Metrics.Addr().String()))
			if err := metricsSrv.Serve(lis.Metrics); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-refresher.Start(gctx)
		return nil
	})
	g.Go(func() error {
		warmCatalog(gctx, catalogSvc, log)
		healthSrv.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down riskd")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
			}
		}
		stopGRPC(shutdownCtx, grpcSrv)
		return errors.Join(errs...)
	})

	return g.Wait()
}

// warmCatalog loads the catalog once so the first request does not pay for
// the download.
func warmCatalog(ctx context.Context, svc *catalog.Service, log logging.Logger) {
	objs, err := svc.ListTrackedObjects(ctx)
	if err != nil {
		log.Warn(ctx, "initial catalog load failed; assessments will use an empty catalog until the next refresh", logging.Err(err))
		return
	}
	log.Info(ctx, "catalog ready", logging.Int("objects", len(objs)))
}

func stopGRPC(ctx context.Context, srv *grpc.Server) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		srv.Stop()
	}
}

func openStore(ctx context.Context, cc config.CatalogConfig) (catalog.SnapshotStore, func(), error) {
	switch cc.Backend {
	case "file":
		return catalog.NewFileStore(cc.CacheFile), func() {}, nil
	case "redis":
		client, err := catalog.NewRedisClient(ctx, cc.RedisURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("catalog redis: %w", err)
		}
		return catalog.NewRedisStore(client, cc.RedisKey, 0), closeRedis(client), nil
	default:
		return nil, func() {}, nil
	}
}

func closeRedis(client *redis.Client) func() {
	return func() { _ = client.Close() }
}
