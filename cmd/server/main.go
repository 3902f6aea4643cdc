package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/arnavshah/shift-planner-go/internal/app"
	"github.com/arnavshah/shift-planner-go/internal/config"
	"github.com/arnavshah/shift-planner-go/internal/logger"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run owns every resource it opens, so the deferred cleanup happens on
// both the success and the error path.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger init error: %w", err)
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close failed", zap.Error(err))
		}
	}()

	if err := a.Bootstrap(ctx); err != nil {
		log.Error("admin bootstrap failed", zap.Error(err))
		return err
	}

	if err := a.Serve(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
