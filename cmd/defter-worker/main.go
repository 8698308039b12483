package main

import (
	"context"
	"errors"
	"os"
	"time"

	"defter/internal/amqp"
	"defter/internal/backend"
	"defter/internal/cli"
	"defter/internal/config"
	applog "defter/internal/log"
	"defter/internal/sheets"
	gsheet "defter/internal/sheets/google"
	memsheet "defter/internal/sheets/memory"
	"defter/internal/worker"
)

func main() {
	_ = cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker, os.Getenv("LOG_LEVEL"))
	logger.Info("Starting defter-worker", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	// The worker reads the store the API process writes to. A memory store
	// would be empty here and a bolt file is locked by the server.
	if err := backendCfg.RequireShared(); err != nil {
		logger.Error("Backend not usable by the worker", applog.FieldError, err)
		os.Exit(1)
	}
	// Writes happen in the API process; a local summary cache here would
	// serve stale balances.
	backendCfg.CacheSize = 0
	// The worker consumes with its own client below and never publishes.
	backendCfg.AMQPURL = ""

	result, err := backend.NewFactory(nil).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err)
		os.Exit(1)
	}

	exporter, err := newExporter(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	balanceWorker := worker.NewBalanceWorker(result.Ledger, exporter)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := consumer.Close(); err != nil {
			logger.Error("AMQP close error", applog.FieldError, err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	// The first pass catches up on anything missed while the worker was down.
	go balanceWorker.RunPeriodicExport(ctx, cfg.ExportInterval)

	go func() {
		if err := consumer.ConsumeLedgerEvents(ctx, balanceWorker.HandleLedgerEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Ledger event consumption failed", applog.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

// newExporter targets Google Sheets when a spreadsheet is configured and an
// in-memory sheet otherwise.
func newExporter(cfg *config.Config, logger *applog.Logger) (sheets.BalanceExporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled, exporting balances to memory")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleBalancesSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
