package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/tax-parser/internal/app"
	"github.com/joseph-ayodele/tax-parser/internal/async"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/export"
	"github.com/joseph-ayodele/tax-parser/internal/ingest"
	"github.com/joseph-ayodele/tax-parser/internal/server"
)

func main() {
	cfg, err := common.LoadConfig(nil, os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("taxparserd exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.DB.HealthCheck(ctx, 3*time.Second); err != nil {
		return err
	}
	logger.Info("DB health OK", "dialect", a.DB.Dialect())

	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.Timeout),
	)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		queue.Shutdown(shutdownCtx)
	}()

	ing := ingest.NewService(a.Forms, queue, logger)
	if _, err := ing.Resume(ctx); err != nil {
		logger.Warn("failed to resume pending forms", "error", err)
	}
	if len(cfg.Ingest.Dirs) > 0 {
		err := ing.Watch(ctx, ingest.WatchConfig{
			Roots:       cfg.Ingest.Dirs,
			InitialScan: true,
			Debounce:    cfg.Ingest.Debounce,
			SkipHidden:  true,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
	}

	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(server.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	svc := server.NewTaxFormService(a.Forms, a.Fields, a.Processor, ing,
		export.NewService(a.Forms, a.Fields, logger), a.Layout, logger)
	server.RegisterTaxFormServiceServer(grpcServer, svc)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}
	logger.Info("gRPC serving", "addr", lis.Addr().String(), "work_dir", a.Layout.Root)

	errCh := make(chan error, 1)
	go func() { errCh <- grpcServer.Serve(lis) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		hs.Shutdown()
		grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
