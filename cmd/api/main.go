package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Seedgta1/N8/internal/config"
	"github.com/Seedgta1/N8/internal/infra/httpserver"
	"github.com/Seedgta1/N8/internal/logger"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := wire(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer svc.Close()

	sweepStop := make(chan struct{})
	defer close(sweepStop)
	go svc.limiter.RunSweeper(5*time.Minute, 10*time.Minute, sweepStop)

	handler := httpserver.NewRouter(svc.services, httpserver.Options{
		Log:            zl,
		Metrics:        svc.metrics,
		Limiter:        svc.limiter,
		Health:         svc.health,
		CORSOrigins:    cfg.Server.CORSOrigins,
		TrustedProxies: svc.proxies,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OpenAI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", addr), zap.String("driver", cfg.Database.Driver),
			zap.Int("threshold", int(cfg.Threshold())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// graceful shutdown
	zl.Info("shutting down server...")
	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
