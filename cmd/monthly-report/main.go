// Command monthly-report assembles the report for one owner and month
// and either prints it as JSON or pushes it to Google Sheets.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"budgeteer/internal/backend"
	"budgeteer/internal/config"
	"budgeteer/internal/engine"
	"budgeteer/internal/export"
	"budgeteer/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	now := time.Now()
	ownerID := flag.Int64("owner", 0, "owner id to report on (required)")
	year := flag.Int("year", now.Year(), "report year")
	month := flag.Int("month", int(now.Month()), "report month (1-12)")
	toSheets := flag.Bool("sheets", false, "export to Google Sheets instead of printing JSON")
	flag.Parse()

	cfg := config.Load()
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Component: log.ComponentExport})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if *ownerID <= 0 {
		logger.Error("Missing required -owner flag")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
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

	eng := engine.New(result.Store, result.Store)

	report, err := eng.MonthlyReport(ctx, *ownerID, *year, *month)
	if err != nil {
		logger.Error("Failed to assemble report",
			log.FieldError, err,
			log.FieldOwnerID, *ownerID,
			log.FieldYear, *year,
			log.FieldMonth, *month)
		os.Exit(1)
	}

	if *toSheets {
		writer, err := export.NewSheetsWriterFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets writer", log.FieldError, err)
			os.Exit(1)
		}
		sheet, err := writer.WriteMonthlyReport(ctx, report)
		if err != nil {
			logger.Error("Failed to export report", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Report exported",
			log.FieldSheet, sheet,
			log.FieldOwnerID, *ownerID,
			log.FieldCount, report.Count)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("Failed to encode report", log.FieldError, err)
		os.Exit(1)
	}
}
