// Command expenses-worker mirrors the expense store into a Google Sheet. It
// applies change events from AMQP as they arrive and periodically reconciles
// the sheet against the store to pick up anything it missed.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/sheets"
	gsheet "expensetracker/internal/sheets/google"
	memsheet "expensetracker/internal/sheets/memory"
	"expensetracker/internal/worker"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always runs.
func run() int {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting expenses-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend != config.BackendSQLite {
		logger.Error("The worker reads the SQLite store; set DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		return 1
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return 1
	}
	defer repo.Close()

	mirror, err := openMirror(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize mirror", "error", err)
		return 1
	}

	syncWorker := worker.NewSyncWorker(repo, mirror, cfg.SyncBatchSize)
	reconciler := worker.NewReconciler(syncWorker, cfg.SyncInterval)

	var client *amqp.Client
	if cfg.EventsEnabled() {
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			return 1
		}
		defer client.Close()
	} else {
		logger.Info("AMQP_URL not set, relying on periodic reconciliation only", "interval", cfg.SyncInterval)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return reconciler.Run(gctx)
	})

	if client != nil {
		g.Go(func() error {
			logger.Info("Consuming expense events", "queue", cfg.AMQPQueue)
			return client.Consume(gctx, syncWorker.HandleEvent)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		return 1
	}
	logger.Info("Worker shutdown complete")
	return 0
}

// openMirror returns the Google Sheets mirror when a spreadsheet is
// configured, and an in-process mirror otherwise.
func openMirror(ctx context.Context, logger *slog.Logger, cfg *config.Config) (sheets.Mirror, error) {
	if !cfg.MirrorEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring into memory only")
		return memsheet.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, err
	}
	logger.Info("Google Sheets mirror initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, nil
}
