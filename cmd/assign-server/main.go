// Command assign-server exposes the beam assigner over gRPC and serves
// Prometheus metrics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/beam-assigner/assign"
	"github.com/signalsfoundry/beam-assigner/internal/logging"
	"github.com/signalsfoundry/beam-assigner/internal/nbi"
	"github.com/signalsfoundry/beam-assigner/internal/observability"
	"github.com/signalsfoundry/beam-assigner/internal/scenario"
	"github.com/signalsfoundry/beam-assigner/kb"
)

// Config captures the server's runtime settings.
type Config struct {
	ListenAddress  string
	MetricsAddress string // empty disables the /metrics listener
	ScenarioPath   string // optional catalog seeded at startup
	Registry       *prometheus.Registry
}

func main() {
	grpcAddr := flag.String("grpc-addr", ":50051", "TCP address the assignment gRPC server listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	scenarioPath := flag.String("scenario", "", "optional scenario file loaded into the catalog at startup")
	flag.Parse()

	log := logging.NewFromEnv()
	cfg := Config{
		ListenAddress:  *grpcAddr,
		MetricsAddress: *metricsAddr,
		ScenarioPath:   *scenarioPath,
	}

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error(context.Background(), "failed to listen for gRPC", logging.String("addr", cfg.ListenAddress), logging.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "assign-server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves on lis until ctx is cancelled.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	if log == nil {
		log = logging.Noop()
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv("ASSIGN_SERVER", "assign-server"), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	var reg prometheus.Registerer
	if cfg.Registry != nil {
		reg = cfg.Registry
	}
	rpcMetrics, err := observability.NewRPCCollector(reg)
	if err != nil {
		return err
	}
	solverMetrics, err := observability.NewSolverCollector(reg)
	if err != nil {
		return err
	}

	catalog := kb.NewCatalog(kb.WithCountsRecorder(rpcMetrics))
	base := assign.DefaultConfig()
	if cfg.ScenarioPath != "" {
		base, err = seedCatalog(ctx, catalog, cfg.ScenarioPath, log)
		if err != nil {
			return err
		}
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			nbi.RequestIDUnaryServerInterceptor(log),
			nbi.TracingUnaryServerInterceptor(),
			rpcMetrics.UnaryServerInterceptor(),
		),
	)
	nbi.RegisterAssignmentServer(server, nbi.NewAssignmentService(catalog, base, log, solverMetrics))

	metricsSrv := serveMetrics(cfg.MetricsAddress, rpcMetrics, log)

	serveErr := make(chan error, 1)
	log.Info(ctx, "starting assignment gRPC server", logging.String("addr", lis.Addr().String()))
	go func() { serveErr <- server.Serve(lis) }()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
	}

	log.Info(context.Background(), "shutting down assignment server")
	server.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func seedCatalog(ctx context.Context, catalog *kb.Catalog, path string, log logging.Logger) (assign.Config, error) {
	sc, err := scenario.LoadFile(path, assign.DefaultConfig())
	if err != nil {
		return assign.Config{}, err
	}
	for _, u := range sc.Users {
		if err := catalog.AddUser(u); err != nil {
			return assign.Config{}, err
		}
	}
	for _, s := range sc.Satellites {
		if err := catalog.AddSatellite(s); err != nil {
			return assign.Config{}, err
		}
	}
	log.Info(ctx, "loaded catalog",
		logging.String("path", path),
		logging.Int("users", len(sc.Users)),
		logging.Int("satellites", len(sc.Satellites)),
	)
	return sc.Config, nil
}

func serveMetrics(addr string, collector *observability.RPCCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
