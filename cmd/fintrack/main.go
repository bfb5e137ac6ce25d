package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/events"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger("info", "text")
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	logger.Info("Starting fintrack server",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.DataBackend,
		"events", cfg.EventsBackend)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	pub := events.FromConfig(startCtx, cfg, logger)
	app, err := cli.OpenApp(startCtx, cfg, logger, pub)
	cancelStart()
	if err != nil {
		_ = pub.Close()
		cli.Fatal(logger, "Failed to open tracker", err, log.FieldBackend, cfg.DataBackend)
	}

	srv := apphttp.NewServer(":"+cfg.Port, app.Tracker, logger, apphttp.Options{})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	})

	logger.Info("Listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_ = app.Close()
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
