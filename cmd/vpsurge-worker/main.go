package main

import (
	"context"
	"os"
	"time"

	"github.com/Tcordeir0/vpsurge-fin/internal/backend"
	"github.com/Tcordeir0/vpsurge-fin/internal/cli"
	"github.com/Tcordeir0/vpsurge-fin/internal/sheets"
	"github.com/Tcordeir0/vpsurge-fin/internal/sheets/google"
	"github.com/Tcordeir0/vpsurge-fin/internal/sheets/memory"
	"github.com/Tcordeir0/vpsurge-fin/internal/store"
	"github.com/Tcordeir0/vpsurge-fin/internal/worker"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.DataBackend != "sqlite" {
		logger.Error("Mirror worker requires the sqlite backend", "data_backend", cfg.DataBackend)
		os.Exit(1)
	}

	res, err := backend.Build(cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}

	queue, ok := res.Store.(*store.SQLiteStore)
	if !ok {
		logger.Error("Store does not track mirror state")
		os.Exit(1)
	}

	var writer sheets.TransactionWriter
	if cfg.GoogleSpreadsheetID != "" {
		w, err := google.New(context.Background(), google.Options{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			SheetName:     cfg.GoogleSheetName,
			ClientJSON:    cfg.GoogleOAuthClientJSON,
			ClientFile:    cfg.GoogleOAuthClientFile,
			TokenJSON:     cfg.GoogleOAuthTokenJSON,
			TokenFile:     cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = w
		logger.Info("Mirroring to Google Sheets",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		writer = memory.New()
		logger.Warn("No spreadsheet configured, mirroring to in-memory writer")
	}

	mirror := worker.NewMirror(queue, writer, res.Feed, cfg.OwnerID, worker.MirrorConfig{
		PollInterval: cfg.MirrorInterval,
		BatchSize:    cfg.MirrorBatchSize,
	})
	if err := mirror.Start(context.Background()); err != nil {
		logger.Error("Failed to start mirror worker", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := mirror.Stop(shutdownCtx); err != nil {
			logger.Error("Mirror worker shutdown error", "error", err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend shutdown error", "error", err)
		}
	})

	logger.Info("Mirror worker started",
		"owner_id", cfg.OwnerID,
		"poll_interval", cfg.MirrorInterval,
		"batch_size", cfg.MirrorBatchSize)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Mirror worker stopped gracefully")
}
