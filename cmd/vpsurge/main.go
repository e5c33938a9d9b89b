package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/Tcordeir0/vpsurge-fin/internal/auth"
	"github.com/Tcordeir0/vpsurge-fin/internal/backend"
	"github.com/Tcordeir0/vpsurge-fin/internal/cli"
	"github.com/Tcordeir0/vpsurge-fin/internal/dashboard"
	apphttp "github.com/Tcordeir0/vpsurge-fin/internal/http"
	"github.com/Tcordeir0/vpsurge-fin/internal/notify"
	"github.com/Tcordeir0/vpsurge-fin/internal/vps"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	res, err := backend.Build(cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}

	ring := notify.NewRing(100)
	provider := auth.NewStaticProvider(cfg.OwnerID, cfg.OwnerEmail)
	ctrl := dashboard.NewController(res.Store, res.Feed, provider, ring)
	if err := ctrl.Start(context.Background()); err != nil {
		logger.Error("Failed to start dashboard controller", "error", err)
		os.Exit(1)
	}

	vpsStore, err := vps.NewFileStore(cfg.VPSStatePath)
	if err != nil {
		logger.Error("Failed to open VPS state file", "error", err, "path", cfg.VPSStatePath)
		os.Exit(1)
	}
	manager := vps.NewManager(vpsStore, ring, vps.DefaultManagerConfig())
	refresher := vps.NewRefresher(manager, cfg.VPSRefreshInterval)
	if err := refresher.Start(context.Background()); err != nil {
		logger.Error("Failed to start VPS refresher", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ctrl, manager, ring, cfg.AuthToken)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := refresher.Stop(shutdownCtx); err != nil {
			logger.Error("VPS refresher shutdown error", "error", err)
		}
		ctrl.Stop(shutdownCtx)
		if err := res.Close(); err != nil {
			logger.Error("Backend shutdown error", "error", err)
		}
	})

	logger.Info("Starting vpsurge server",
		"port", cfg.Port,
		"data_backend", cfg.DataBackend,
		"feed_backend", cfg.FeedBackend,
		"auth_enabled", cfg.AuthToken != "")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
