// Package config loads environment variables and provides a typed Config used across the bot.
// It applies sensible defaults so the binary can run locally with minimal setup.
// VIDEO_ID is the only strictly required variable; use Validate before starting the poller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Stream
	VideoID string

	// Filtering
	AllowedAuthors []string
	AuthorAliases  map[string]string

	// Speech
	Voice string
	Rate  int

	// Polling
	PollInterval time.Duration

	// YouTube OAuth
	YTClientID        string
	YTClientSecret    string
	YTScopes          string
	ClientSecretsFile string
	TokenFile         string
	OAuthPort         int

	// HTTP (health/status/metrics)
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't fail if the
// video id is missing; use Validate() when you require a stream to attach to.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.VideoID = os.Getenv("VIDEO_ID")

	cfg.AllowedAuthors = splitList(os.Getenv("ALLOWED_AUTHORS"))

	aliases, err := parseAliases(os.Getenv("AUTHOR_ALIASES"))
	if err != nil {
		return nil, err
	}
	cfg.AuthorAliases = aliases

	cfg.Voice = os.Getenv("TTS_VOICE")
	if cfg.Voice == "" {
		cfg.Voice = "Alex"
	}

	cfg.Rate = 180 // words per minute
	if v := os.Getenv("TTS_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid TTS_RATE %q: want a positive integer", v)
		}
		cfg.Rate = n
	}

	cfg.PollInterval = 5 * time.Second
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q: want a positive duration like 5s", v)
		}
		cfg.PollInterval = d
	}

	// OAuth
	cfg.YTClientID = os.Getenv("YT_CLIENT_ID")
	cfg.YTClientSecret = os.Getenv("YT_CLIENT_SECRET")
	cfg.YTScopes = os.Getenv("YT_SCOPES")
	if cfg.YTScopes == "" {
		cfg.YTScopes = "https://www.googleapis.com/auth/youtube.readonly"
	}
	cfg.ClientSecretsFile = os.Getenv("CLIENT_SECRETS_FILE")
	if cfg.ClientSecretsFile == "" {
		cfg.ClientSecretsFile = "client_secrets.json"
	}
	cfg.TokenFile = os.Getenv("TOKEN_FILE")
	if cfg.TokenFile == "" {
		cfg.TokenFile = "token.json"
	}
	cfg.OAuthPort = 8090
	if v := os.Getenv("OAUTH_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("invalid OAUTH_PORT %q", v)
		}
		cfg.OAuthPort = n
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// Validate checks required fields before attaching to a stream.
func (c *Config) Validate() error {
	if c.VideoID == "" {
		return fmt.Errorf("missing VIDEO_ID: set it to the id from https://www.youtube.com/watch?v=VIDEO_ID")
	}
	return nil
}

// splitList splits a comma separated list, trimming whitespace and dropping empties.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseAliases parses "Display Name=Spoken Name" pairs separated by commas.
func parseAliases(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, alias, ok := strings.Cut(pair, "=")
		name, alias = strings.TrimSpace(name), strings.TrimSpace(alias)
		if !ok || name == "" || alias == "" {
			return nil, fmt.Errorf("invalid AUTHOR_ALIASES entry %q: want Name=Alias", pair)
		}
		out[name] = alias
	}
	return out, nil
}
