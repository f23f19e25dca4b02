package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"spendtrack/internal/amqp"
	"spendtrack/internal/anomaly"
	"spendtrack/internal/config"
	"spendtrack/internal/services"
	"spendtrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting spendtrack-worker")

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite repository to read ledgers and write anomaly flags
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Initialize the anomaly classifier
	detector, err := anomaly.NewDetector(anomaly.DefaultContamination)
	if err != nil {
		logger.Error("Failed to initialize anomaly detector", "error", err)
		os.Exit(1)
	}

	// Initialize AMQP client for consuming expense events (optional).
	// Without a broker the periodic sweep still rescores every ledger,
	// only the near-realtime trigger is lost.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, running on periodic sweep only", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	processor := services.NewScoreProcessor(repo, detector, services.ScoreProcessorConfig{
		Interval: cfg.ScoreInterval,
	})

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	// Periodic sweep over every ledger, catching messages the consumer
	// missed while the broker or worker was down.
	g.Go(func() error {
		if err := processor.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		return processor.Stop(stopCtx)
	})

	// Event-driven rescoring: each expense added message triggers a
	// rescore of that user's ledger.
	if amqpClient != nil {
		g.Go(func() error {
			for {
				err := amqpClient.ConsumeExpenseAdded(gctx, func(msg *amqp.ExpenseAddedMessage) error {
					return processor.ScoreUser(gctx, msg.UserID)
				})
				if errors.Is(err, context.Canceled) || gctx.Err() != nil {
					return nil
				}
				logger.Error("Message consumption failed, reconnecting", "error", err)
				if err := amqpClient.Reconnect(gctx); err != nil {
					logger.Error("AMQP reconnect failed", "error", err)
					return err
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
