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

	"github.com/mlaskin/docvision/internal/common"
	"github.com/mlaskin/docvision/internal/export"
	"github.com/mlaskin/docvision/internal/extract"
	"github.com/mlaskin/docvision/internal/fetch"
	"github.com/mlaskin/docvision/internal/history"
	"github.com/mlaskin/docvision/internal/llm/anthropic"
	"github.com/mlaskin/docvision/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hist, err := history.Open(ctx, cfg.History.Path, logger)
	if err != nil {
		logger.Error("open history store", "path", cfg.History.Path, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := hist.Close(); cerr != nil {
			logger.Warn("close history store", "error", cerr)
		}
	}()

	fetcher := fetch.NewFetcher(&http.Client{Timeout: cfg.Fetch.HTTPTimeout}, logger)
	client := anthropic.NewClient(anthropic.Config{
		APIKey:  cfg.Model.APIKey,
		BaseURL: cfg.Model.BaseURL,
		Model:   cfg.Model.Model,
		Timeout: cfg.Model.Timeout,
	}, logger)
	svc := extract.NewService(logger, extract.Config{
		TextMaxTokens:   cfg.Model.TextTokens,
		FieldsMaxTokens: cfg.Model.FieldsTokens,
	}, fetcher, client)

	handler := server.NewHandler(cfg.Server, svc, hist, export.NewService(logger), logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server.listen", "addr", cfg.Server.Addr, "model", cfg.Model.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server.listen_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown.error", "error", err)
		os.Exit(1)
	}
	logger.Info("server.shutdown.ok")
}
