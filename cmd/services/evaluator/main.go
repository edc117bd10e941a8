package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/anomalyeval/internal/config"
	"github.com/soltixdb/anomalyeval/internal/logging"
	"github.com/soltixdb/anomalyeval/internal/metrics"
	"github.com/soltixdb/anomalyeval/internal/queue"
	"github.com/soltixdb/anomalyeval/internal/router"
	"github.com/soltixdb/anomalyeval/internal/services"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Evaluator service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	var queueClient queue.Queue
	if cfg.PublishesReports() {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		queueClient, err = queue.NewQueue(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()
		logger.Info("Reports will be published", "subject", cfg.Queue.Subject)
	} else {
		logger.Info("Report publishing disabled")
	}

	m := metrics.New()

	var publisher queue.Publisher
	if queueClient != nil {
		publisher = queueClient
	}
	service, err := services.NewEvaluationService(logger, cfg, publisher, m)
	if err != nil {
		logger.Fatal("Failed to create evaluation service", "error", err)
	}

	if cfg.ConsumesJobs() {
		if err := service.StartJobConsumer(queueClient, cfg.Queue.JobsSubject); err != nil {
			logger.Fatal("Failed to start job consumer", "error", err)
		}
	}

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	app := router.New(logger, service, m, *cfg)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
