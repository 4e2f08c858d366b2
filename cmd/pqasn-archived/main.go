package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"xdao.co/pqasn/internal/logging"
	"xdao.co/pqasn/storage"
	"xdao.co/pqasn/storage/casconfig"
	"xdao.co/pqasn/storage/casregistry"
	"xdao.co/pqasn/storage/grpccas"

	_ "xdao.co/pqasn/storage/localfs"
)

type options struct {
	listen        string
	metricsListen string
	backend       string
	config        string
	acceptBER     bool
	envFile       string
	listBackends  bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("pqasn-archived", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var o options
	fs.StringVar(&o.listen, "listen", "127.0.0.1:7443", "gRPC listen address")
	fs.StringVar(&o.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address (disabled when empty)")
	fs.StringVar(&o.backend, "backend", "localfs", "archive backend name")
	fs.StringVar(&o.config, "config", "", "TOML archive config (overrides --backend)")
	fs.BoolVar(&o.acceptBER, "accept-ber", false, "convert BER submissions to DER instead of rejecting them")
	fs.StringVar(&o.envFile, "env-file", "", "load environment variables (e.g. PQASN_LOG_LEVEL) from this file")
	fs.BoolVar(&o.listBackends, "list-backends", false, "list supported backends and exit")
	casregistry.RegisterFlags(fs, casregistry.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.listBackends {
		for _, b := range casregistry.List(casregistry.UsageDaemon) {
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			fmt.Fprintf(errOut, "env-file: %v\n", err)
			return 2
		}
	}
	logger := logging.Configure(logging.ProfileDaemon, "pqasn-archived")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, o, logger); err != nil {
		logger.Error().Err(err).Msg("archive daemon stopped")
		return 1
	}
	return 0
}

func openStore(o options) (storage.CAS, func() error, error) {
	if o.config != "" {
		cfg, err := casconfig.LoadFile(o.config)
		if err != nil {
			return nil, nil, err
		}
		if o.acceptBER {
			cfg.AcceptBER = true
		}
		return cfg.Open(casregistry.UsageDaemon, "")
	}
	cas, closeFn, err := casregistry.Open(o.backend, casregistry.UsageDaemon)
	if err != nil {
		return nil, nil, err
	}
	return storage.Canonical{CAS: cas, AcceptBER: o.acceptBER}, closeFn, nil
}

func serve(ctx context.Context, o options, logger zerolog.Logger) error {
	cas, closeFn, err := openStore(o)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	reg := prometheus.NewRegistry()
	srv := newServer(cas, logger, newMetrics(reg))

	lis, err := net.Listen("tcp", o.listen)
	if err != nil {
		return err
	}

	var metricsSrv *http.Server
	if o.metricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv = &http.Server{Addr: o.metricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	logger.Info().
		Str("listen", lis.Addr().String()).
		Str("backend", backendLabel(o)).
		Bool("accept_ber", o.acceptBER).
		Msg("archive daemon listening")
	return serveUntilDone(ctx, srv, lis, metricsSrv, logger)
}

// serveUntilDone runs srv on lis until ctx ends or Serve fails. Either way
// the metrics server is shut down and srv is stopped before it returns.
func serveUntilDone(ctx context.Context, srv *grpc.Server, lis net.Listener, metricsSrv *http.Server, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if metricsSrv != nil {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			_ = metricsSrv.Shutdown(shutdownCtx)
			cancelShutdown()
		}
		srv.GracefulStop()
	}()

	err := srv.Serve(lis)
	cancel()
	<-stopped
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func newServer(cas storage.CAS, logger zerolog.Logger, m *metrics) *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryInterceptor(logger, m)))
	grpccas.RegisterArchiveServer(srv, &grpccas.Server{CAS: cas})
	return srv
}

func backendLabel(o options) string {
	if o.config != "" {
		return "config:" + o.config
	}
	return o.backend
}
