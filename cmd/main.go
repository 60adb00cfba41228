package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/acecasino/settlement_api/internal/config"
	"github.com/acecasino/settlement_api/internal/container"
	httpserver "github.com/acecasino/settlement_api/internal/presentation/http"
	"github.com/acecasino/settlement_api/internal/presentation/http/handlers"
	"github.com/acecasino/settlement_api/internal/presentation/http/routes"
	"github.com/acecasino/settlement_api/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() {
	// .env is optional, real deployments pass the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Println("Error loading .env file:", err)
	}
}

func main() {
	if err := run(); err != nil {
		logger.GetLogger().WithError(err).Fatal("Settlement server stopped")
	}
}

func run() error {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := logger.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.BaseDir = cfg.Logging.Dir
	log := logger.InitGlobalLogger(logCfg)

	zapLogger, err := logger.NewZapLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer zapLogger.Sync() //nolint:errcheck

	startCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	c, err := container.NewContainer(startCtx, cfg, zapLogger)
	cancel()
	if err != nil {
		return err
	}
	defer c.Close()

	if c.ReconcileScheduler != nil && cfg.Reconciler.Enabled {
		if err := c.ReconcileScheduler.Start(); err != nil {
			return err
		}
		defer c.ReconcileScheduler.Stop()
	}

	h := routes.Handlers{Settlement: handlers.NewSettlementHandler(c.SettlementSvc)}
	if c.SettlementHistoryRepo != nil {
		h.History = handlers.NewHistoryHandler(c.SettlementHistoryRepo)
	}

	if c.Notifier != nil {
		if err := c.Notifier.Notify("Settlement API server start"); err != nil {
			zapLogger.Warn("failed to send start notification", zap.Error(err))
		}
	}
	log.WithField("database", cfg.Database.Enabled).Info("Settlement API initialized")

	return httpserver.NewServer(cfg, h).Start()
}
