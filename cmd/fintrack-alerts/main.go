// Command fintrack-alerts consumes ledger-change events from AMQP and logs
// every budgeted category that reached the warning or danger threshold.
package main

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger("info", "text")
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentAlerts)

	if cfg.EventsBackend != "amqp" {
		cli.Fatal(logger, "fintrack-alerts needs EVENTS_BACKEND=amqp", errors.New("unsupported events backend"),
			"events", cfg.EventsBackend)
	}
	logger.Info("Starting fintrack-alerts", log.FieldOperation, log.OpStartup, log.FieldBackend, cfg.DataBackend)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := backend.NewFactory(logger).CreateBackend(startCtx, backendConfig)
	cancelStart()
	if err != nil {
		cli.Fatal(logger, "Failed to create backend", err, log.FieldBackend, cfg.DataBackend)
	}
	defer res.Close()

	var invalidate func()
	if res.Cached != nil {
		invalidate = res.Cached.Invalidate
	}
	alerts := services.NewBudgetAlerts(store.NewRepository(res.Store, logger), services.Options{
		DefaultCurrency:  cfg.DefaultCurrency,
		StrictCategories: cfg.StrictCategories,
	}, logger, invalidate)

	client, err := events.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// report the current state once before waiting for changes
	if err := alerts.HandleEvent(ctx, events.New(events.BudgetsUpdated)); err != nil {
		logger.Error("Startup budget check failed", log.FieldError, err)
	}

	if err := client.Consume(ctx, alerts.HandleEvent); ctx.Err() == nil {
		logger.Error("Message consumption failed", log.FieldError, err, log.FieldOperation, log.OpConsume)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Alerts worker stopped")
}
