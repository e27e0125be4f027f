package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/accessmap/backend/internal/config"
	"github.com/accessmap/backend/internal/infra/logger"
	"github.com/accessmap/backend/internal/jobs/reaper"
	pgrepo "github.com/accessmap/backend/internal/repo/postgres"
)

// One-shot expiry sweep, meant to be run from cron or an operator shell.
func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("postgres init failed", zap.Error(err))
	}
	defer pool.Close()

	job := reaper.New(pgrepo.NewReportRepo(pool), cfg.Reaper.RemovedRetention, log)
	if err := job.Run(ctx); err != nil {
		log.Fatal("reaper sweep failed", zap.Error(err))
	}
}
