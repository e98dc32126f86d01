// Package oauth supplies the authenticated handle for YouTube API calls.
// Credentials come from a Google client-secrets file or env vars; the granted
// token is cached in a local JSON file (0600) and re-saved whenever the
// underlying token source refreshes it, so a one-time browser authorization
// survives restarts.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/onnwee/chat-speaker/config"
)

// NewConfig builds the oauth2.Config. It prefers the client-secrets JSON file
// (the format Google's console exports); if that file is absent it falls back
// to YT_CLIENT_ID / YT_CLIENT_SECRET from the environment.
func NewConfig(cfg *config.Config) (*oauth2.Config, error) {
	scopes := parseScopes(cfg.YTScopes)

	if data, err := os.ReadFile(cfg.ClientSecretsFile); err == nil {
		conf, err := google.ConfigFromJSON(data, scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.ClientSecretsFile, err)
		}
		return conf, nil
	}

	if cfg.YTClientID == "" || cfg.YTClientSecret == "" {
		return nil, fmt.Errorf("no credentials: provide %s or set YT_CLIENT_ID and YT_CLIENT_SECRET", cfg.ClientSecretsFile)
	}
	return &oauth2.Config{
		ClientID:     cfg.YTClientID,
		ClientSecret: cfg.YTClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
	}, nil
}

// parseScopes splits a comma or space separated scope list.
func parseScopes(s string) []string {
	s = strings.ReplaceAll(s, ",", " ")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return []string{"https://www.googleapis.com/auth/youtube.readonly"}
	}
	return fields
}

// FileTokenStore persists one oauth2.Token as JSON at Path.
type FileTokenStore struct {
	Path string
}

// Load reads the cached token. A missing file is an error; callers treat it
// as "authorization required".
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("decode token file %s: %w", s.Path, err)
	}
	return tok, nil
}

// Save writes the token with owner-only permissions, creating parent
// directories as needed.
func (s *FileTokenStore) Save(tok *oauth2.Token) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// savingSource wraps a token source and persists every new token it yields.
type savingSource struct {
	src   oauth2.TokenSource
	store *FileTokenStore

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || s.last.AccessToken != tok.AccessToken {
		s.last = tok
		if err := s.store.Save(tok); err != nil {
			// Persisting is best effort; the in-memory token still works.
			return tok, nil
		}
	}
	return tok, nil
}

// TokenSource returns an auto-refreshing, auto-saving token source seeded from
// the cached token. It fails if no token has been stored yet.
func TokenSource(ctx context.Context, conf *oauth2.Config, store *FileTokenStore) (oauth2.TokenSource, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("no cached token (run the authorize command first): %w", err)
	}
	return NewSavingTokenSource(conf.TokenSource(ctx, tok), store), nil
}

// NewSavingTokenSource wraps src so refreshed tokens are written back to store.
func NewSavingTokenSource(src oauth2.TokenSource, store *FileTokenStore) oauth2.TokenSource {
	return &savingSource{src: src, store: store}
}
