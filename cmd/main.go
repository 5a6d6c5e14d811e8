package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"dwhreports/config"
	"dwhreports/internal/api"
	"dwhreports/internal/bootstrap"
	"dwhreports/internal/rabbitmq"
	"dwhreports/internal/scheduler"
	"dwhreports/internal/workers"
	"dwhreports/pkg/logger"

	"github.com/gin-gonic/gin"
)

var log = logger.New("main")

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Invalid LOG_LEVEL: %v", err)
	}
	log.Info("🚀 Starting Reporting Service...")

	log.Infof("✓ Configuration loaded")
	log.Infof("  - Warehouse: %s (timeout %s, cache ttl %s)", cfg.Warehouse.Driver, cfg.Warehouse.QueryTimeout, cfg.Warehouse.CacheTTL)
	log.Infof("  - RabbitMQ: %s", cfg.RabbitMQ.URL)
	log.Infof("  - HTTP: %s", cfg.HTTP.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the warehouse; a schema mismatch stops startup here
	wh, err := bootstrap.OpenWarehouse(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open warehouse: %v", err)
	}
	defer wh.Close()
	log.Info("✓ Warehouse schema verified")

	catalogue := bootstrap.NewCatalogue(cfg, wh)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create report consumer: %v", err)
	}
	defer consumer.Close()

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}
	defer publisher.Close()
	log.Info("✓ Connected to RabbitMQ")

	reportWorker := workers.NewReportWorker(consumer, publisher, catalogue, cfg.RabbitMQ.ReportQueue, cfg.Warehouse.QueryTimeout)

	var snapshotter *scheduler.Snapshotter
	if cfg.Warehouse.SnapshotCron != "" {
		snapshotter = scheduler.NewSnapshotter(catalogue, publisher, cfg.RabbitMQ.SnapshotQueue)
		if err := snapshotter.Start(cfg.Warehouse.SnapshotCron); err != nil {
			log.Fatalf("Failed to start snapshot scheduler: %v", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewEngine(api.NewReportController(catalogue)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := reportWorker.Start(ctx); err != nil {
			log.Errorf("Report worker error: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("HTTP server error: %v", err)
		}
	}()

	log.Info("✓ Reporting service started successfully")

	<-ctx.Done()

	log.Info("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP shutdown error: %v", err)
	}
	if snapshotter != nil {
		snapshotter.Stop()
	}
	wg.Wait()
	log.Info("✓ Reporting service stopped gracefully")
}
