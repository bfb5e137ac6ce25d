// Command fintrack-export writes every stored transaction as CSV, oldest
// first, to stdout or to the file named by -o.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

func main() {
	output := flag.String("o", "", "write the CSV to this file instead of stdout")
	flag.Parse()

	cli.LoadEnvFile()
	// logs go to stderr so stdout carries only the CSV
	logger := log.New(log.Config{Format: "text", Level: log.ParseLevel(os.Getenv("LOG_LEVEL")), Output: os.Stderr, Component: log.ComponentExport})
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(cfg, logger, *output); err != nil {
		cli.Fatal(logger, "Export failed", err)
	}
}

func run(cfg *config.Config, logger *log.Logger, output string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	app, err := cli.OpenApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := app.Tracker.ExportCSV(w); err != nil {
		return err
	}
	logger.Info("Export complete",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(app.Tracker.Transactions()),
		"output", outputName(output))
	return nil
}

func outputName(output string) string {
	if output == "" {
		return "stdout"
	}
	return output
}
