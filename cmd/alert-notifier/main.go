// Command alert-notifier consumes budget alert messages from the broker
// and writes them to the log. It is the delivery end of the alert
// pipeline; swap the handler to fan out to mail or chat.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgeteer/internal/amqp"
	"budgeteer/internal/config"
	"budgeteer/internal/core"
	"budgeteer/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Component: log.ComponentAMQP})
	log.SetDefault(logger)

	logger.Info("Starting alert-notifier")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dial := func() (*amqp.Client, error) {
		return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	}

	handler := func(msg *amqp.BudgetAlertMessage) error {
		logger.Info("budget alert received",
			log.FieldMessageID, msg.MessageID,
			log.FieldBudgetID, msg.BudgetID,
			log.FieldOwnerID, msg.OwnerID,
			log.FieldKind, string(msg.Kind),
			log.FieldPercent, msg.PercentUsed,
			"spent", core.Money{Cents: msg.SpentCents}.String(),
			"limit", core.Money{Cents: msg.LimitCents}.String(),
			"message", msg.Message)
		return nil
	}

	err := amqp.ConsumeWithReconnect(ctx, dial, handler)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Alert consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Alert-notifier shutdown complete")
}
