// Command chat-speaker attaches to a YouTube live stream's chat and reads
// allowed authors' messages aloud through the local TTS engine. It:
//   - Loads configuration and initializes structured logging.
//   - Acquires an OAuth token (cached in a local file; first run opens the
//     browser consent flow).
//   - Resolves the stream's active live-chat id and polls it on a fixed
//     cadence, de-duplicating messages and filtering by author allow-list.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM and exits 0; a chat that ends or a
// stream that cannot be resolved exits 1 with a diagnostic.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/chat-speaker/chat"
	"github.com/onnwee/chat-speaker/config"
	"github.com/onnwee/chat-speaker/oauth"
	"github.com/onnwee/chat-speaker/server"
	"github.com/onnwee/chat-speaker/speech"
	"github.com/onnwee/chat-speaker/telemetry"
	"github.com/onnwee/chat-speaker/youtubeapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("chat-speaker", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// OAuth: cached token file, interactive browser flow on first run.
	oconf, err := oauth.NewConfig(cfg)
	if err != nil {
		slog.Error("oauth config failed", slog.Any("err", err))
		os.Exit(1)
	}
	store := &oauth.FileTokenStore{Path: cfg.TokenFile}
	ts, err := oauth.EnsureTokenSource(ctx, oconf, store, cfg.OAuthPort)
	if err != nil {
		slog.Error("authorization failed", slog.Any("err", err))
		os.Exit(1)
	}

	svc, err := youtubeapi.NewService(ctx, ts)
	if err != nil {
		slog.Error("youtube service init failed", slog.Any("err", err))
		os.Exit(1)
	}
	yt := youtubeapi.New(svc)

	// Speech engine; fall back to logging-only output on unsupported platforms.
	var synth chat.Speaker
	if s, err := speech.New(); err != nil {
		slog.Warn("TTS unavailable; messages will be logged only", slog.Any("err", err))
		synth = &speech.Null{}
	} else {
		synth = s
		if voices, err := speech.ListVoices(ctx); err == nil && len(voices) > 0 {
			names := speech.Names(voices)
			if len(names) > 10 {
				names = names[:10]
			}
			slog.Info("TTS ready", slog.String("voice", cfg.Voice), slog.Int("rate_wpm", cfg.Rate), slog.Any("available_voices", names))
		}
	}

	poller := chat.NewPoller(yt, yt, synth, chat.Options{
		VideoID:        cfg.VideoID,
		AllowedAuthors: cfg.AllowedAuthors,
		AuthorAliases:  cfg.AuthorAliases,
		Voice:          cfg.Voice,
		Rate:           cfg.Rate,
		PollInterval:   cfg.PollInterval,
	})

	// HTTP server (health/status/metrics)
	go func() {
		if err := server.Start(ctx, cfg.HTTPAddr, poller.Snapshot); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	slog.Info("listening for chat messages",
		slog.String("video_id", cfg.VideoID),
		slog.Any("allowed_authors", cfg.AllowedAuthors),
		slog.Bool("tracing", telemetry.IsTracingEnabled()))
	err = poller.Run(ctx)
	switch {
	case err == nil || errors.Is(err, context.Canceled):
		slog.Info("stopped by operator")
	case errors.Is(err, chat.ErrChatEnded):
		slog.Error("live chat ended", slog.Any("err", err))
		os.Exit(1)
	default:
		slog.Error("poller stopped", slog.Any("err", err))
		os.Exit(1)
	}
}
