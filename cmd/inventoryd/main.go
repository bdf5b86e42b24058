// Command inventoryd watches an inbox directory and runs every new document
// through the extraction pipeline. It serves gRPC health and /metrics.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/app"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/core"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/async"
	"github.com/joseph-ayodele/inventory-scanner/internal/ingest"
)

func main() {
	common.LoadDotEnv()
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.LogLevel, os.Stdout)

	docType, ok := constants.ParseDocumentType(cfg.Ingest.DocType)
	if !ok {
		logger.Error("invalid INBOX_DOC_TYPE", "value", cfg.Ingest.DocType)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	if err := os.MkdirAll(cfg.Ingest.InboxDir, 0o755); err != nil {
		logger.Error("failed to create inbox", "dir", cfg.Ingest.InboxDir, "error", err)
		os.Exit(1)
	}

	// gRPC health
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	if cfg.Server.MetricsAddr != "" {
		go func() {
			if err := a.Metrics.Serve(ctx, cfg.Server.MetricsAddr, logger); err != nil {
				stop()
			}
		}()
	}

	queue := async.NewProcessorQueue(a.Processor, a.Ingestor, logger,
		async.WithWorkers(cfg.Ingest.Workers),
		async.WithQueueSize(cfg.Ingest.QueueSize),
		async.WithProcessTimeout(3*time.Minute),
		async.WithResultHandler(func(job async.Job, _ *core.Result, err error) {
			if err != nil {
				logger.Warn("inbox.document.manual_entry", "path", job.Path, "code", common.GRPCCode(err).String())
			}
		}),
	)

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Ingest.InboxDir},
		InitialScan: true,
		SkipHidden:  true,
		Debounce:    500 * time.Millisecond,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	logger.Info("inventoryd started",
		"grpc_addr", cfg.Server.GRPCAddr,
		"metrics_addr", cfg.Server.MetricsAddr,
		"inbox", cfg.Ingest.InboxDir,
		"doc_type", docType,
		"allow_remote", cfg.Ingest.AllowRemote,
	)

loop:
	for {
		select {
		case path, ok := <-events:
			if !ok {
				break loop
			}
			if err := queue.Enqueue(ctx, async.NewJob(path, docType, cfg.Ingest.AllowRemote)); err != nil {
				logger.Warn("enqueue failed", "path", path, "error", err)
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warn("watcher error", "error", err)
		case <-ctx.Done():
			break loop
		}
	}

	logger.Info("shutting down...")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
}
