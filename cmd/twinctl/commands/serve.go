package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/digital-twin/internal/rpc"
	"github.com/danielpatrickdp/digital-twin/internal/telemetry"
)

var (
	grpcAddr    string
	metricsAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the twin over gRPC with Prometheus metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		if grpcAddr != "" {
			cfg.GRPCAddr = grpcAddr
		}
		if metricsAddr != "" {
			cfg.MetricsAddr = metricsAddr
		}

		shutdownTracing, err := telemetry.Init(cmd.Context(), telemetry.Config{
			ServiceName:   "twinctl",
			TraceExporter: cfg.TraceExporter,
			OTLPEndpoint:  cfg.OTLPEndpoint,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Warn("[TWIN] tracing shutdown failed", "error", err)
			}
		}()

		ctrl, cleanup, err := buildController(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
		}
		srv := grpc.NewServer()
		rpc.Register(srv, ctrl, logger)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		errCh := make(chan error, 2)
		go func() { errCh <- srv.Serve(lis) }()
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		logger.Info("[TWIN] serving", "grpc", cfg.GRPCAddr, "metrics", cfg.MetricsAddr, "traces", cfg.TraceExporter)

		select {
		case <-ctx.Done():
			logger.Info("[TWIN] shutting down")
		case err = <-errCh:
			logger.Error("[TWIN] server stopped", "error", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsSrv.Shutdown(shutdownCtx)
		srv.GracefulStop()
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (overrides TWIN_GRPC_ADDR)")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics listen address (overrides TWIN_METRICS_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
