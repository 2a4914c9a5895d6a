package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/neocube/neocube-backend/internal/app"
	"github.com/neocube/neocube-backend/internal/platform/envutil"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, log)
	if err != nil {
		log.Error("Failed to start", "error", err)
		log.Sync()
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
			application.Shutdown(10 * time.Second)
			os.Exit(1)
		}
	}
	application.Shutdown(15 * time.Second)
}
