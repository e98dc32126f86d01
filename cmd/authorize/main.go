// Command authorize runs the interactive OAuth consent flow and saves the
// resulting token to the configured token file, so the main binary can run
// headless afterwards.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/chat-speaker/config"
	"github.com/onnwee/chat-speaker/oauth"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	oconf, err := oauth.NewConfig(cfg)
	if err != nil {
		slog.Error("oauth config failed", slog.Any("err", err))
		os.Exit(1)
	}
	store := &oauth.FileTokenStore{Path: cfg.TokenFile}
	if _, err := oauth.Authorize(ctx, oconf, store, cfg.OAuthPort); err != nil {
		slog.Error("authorization failed", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("token saved", slog.String("path", cfg.TokenFile))
}
