// Package main is the entry point for the InvoicePro background worker.
// It runs overdue and expiry sweeps on SWEEP_INTERVAL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"invoicepro/internal/app"
	"invoicepro/internal/config"
	"invoicepro/internal/infrastructure/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("starting invoicepro worker", "interval", cfg.SweepInterval)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry("invoicepro-worker"))
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer application.Close()

	sweeper := application.Sweeper()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx, cfg.SweepInterval)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Warnw("failed to flush traces", "error", err)
	}
	log.Info("worker stopped")
}
