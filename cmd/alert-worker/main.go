package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgeteer/internal/amqp"
	"budgeteer/internal/backend"
	"budgeteer/internal/config"
	"budgeteer/internal/engine"
	"budgeteer/internal/log"
	"budgeteer/internal/worker"
)

// dropPublisher stands in when no broker is configured: alerts are still
// recorded durably, only the push notification is skipped.
type dropPublisher struct {
	logger *log.Logger
}

func (p dropPublisher) PublishBudgetAlert(_ context.Context, msg *amqp.BudgetAlertMessage) error {
	p.logger.Warn("AMQP disabled, alert not published",
		log.FieldBudgetID, msg.BudgetID,
		log.FieldMessageID, msg.MessageID)
	return nil
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting alert-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := backend.Open(ctx, backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	// AMQP is optional: without a broker the worker still records alerts.
	var publisher worker.AlertPublisher = dropPublisher{logger: logger}
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - alerts will only be recorded")
	}

	eng := engine.New(result.Store, result.Store)
	alertWorker := worker.New(result.Store, eng, publisher)

	logger.Info("Alert worker configured",
		"interval", cfg.EvalInterval,
		"backend", cfg.DataBackend)

	go func() {
		if err := alertWorker.Run(ctx, cfg.EvalInterval); err != nil && err != context.Canceled {
			logger.Error("Alert worker stopped", log.FieldError, err)
			cancel()
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down alert-worker...")
	cancel()

	<-time.After(2 * time.Second)
	logger.Info("Alert-worker shutdown complete")
}
