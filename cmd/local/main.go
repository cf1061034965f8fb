// Command local serves the support router over plain HTTP for development.
// It reads the same environment as the Lambda, plus an optional .env file.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"support-router/internal/app"
	appconfig "support-router/internal/config"
	"support-router/internal/repository"
	"support-router/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "err", err)
	}

	cfg, err := appconfig.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	local, err := appconfig.LoadLocal()
	if err != nil {
		slog.Error("invalid local configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store usecase.RecordWriter = repository.NewMemory()
	if local.Store == "dynamodb" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		store, err = repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.Tables())
		if err != nil {
			slog.Error("failed to create record store", "err", err)
			os.Exit(1)
		}
	}

	h, err := app.Build(ctx, cfg, store, nil)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	r := mux.NewRouter()
	r.Handle("/support", h).Methods(http.MethodPost)

	srv := &http.Server{
		Addr:              local.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("local support router listening", "addr", local.Addr, "store", local.Store)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
