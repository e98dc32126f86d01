package oauth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/onnwee/chat-speaker/config"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "nested", "token.json")}
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	if err := store.Save(tok); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(store.Path)
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.AccessToken != tok.AccessToken || got.RefreshToken != tok.RefreshToken {
		t.Errorf("Load() = %+v, want %+v", got, tok)
	}
}

func TestFileTokenStore_LoadMissing(t *testing.T) {
	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "absent.json")}
	if _, err := store.Load(); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

// seqSource returns scripted tokens in order.
type seqSource struct {
	tokens []*oauth2.Token
	i      int
}

func (s *seqSource) Token() (*oauth2.Token, error) {
	if s.i >= len(s.tokens) {
		return nil, errors.New("exhausted")
	}
	t := s.tokens[s.i]
	s.i++
	return t, nil
}

func TestSavingTokenSource_PersistsRefreshedTokens(t *testing.T) {
	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "token.json")}
	src := &seqSource{tokens: []*oauth2.Token{
		{AccessToken: "first"},
		{AccessToken: "second"},
	}}
	ts := NewSavingTokenSource(src, store)

	if _, err := ts.Token(); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	saved, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after first token: %v", err)
	}
	if saved.AccessToken != "first" {
		t.Errorf("saved token = %q, want first", saved.AccessToken)
	}

	// A refresh yields a new access token; it must be written back.
	if _, err := ts.Token(); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	saved, err = store.Load()
	if err != nil {
		t.Fatalf("Load() after refresh: %v", err)
	}
	if saved.AccessToken != "second" {
		t.Errorf("saved token = %q, want second", saved.AccessToken)
	}
}

func TestNewConfig_FromEnvFallback(t *testing.T) {
	cfg := &config.Config{
		YTClientID:        "id-123",
		YTClientSecret:    "secret-456",
		YTScopes:          "https://www.googleapis.com/auth/youtube.readonly",
		ClientSecretsFile: filepath.Join(t.TempDir(), "missing.json"),
	}
	conf, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	if conf.ClientID != "id-123" || conf.ClientSecret != "secret-456" {
		t.Errorf("config = %+v", conf)
	}
	if len(conf.Scopes) != 1 {
		t.Errorf("scopes = %q", conf.Scopes)
	}
}

func TestNewConfig_FromClientSecretsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_secrets.json")
	secrets := `{"installed":{"client_id":"file-id","client_secret":"file-secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(path, []byte(secrets), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{ClientSecretsFile: path, YTScopes: "scope-a scope-b"}
	conf, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	if conf.ClientID != "file-id" {
		t.Errorf("ClientID = %q, want file-id", conf.ClientID)
	}
	if !reflect.DeepEqual(conf.Scopes, []string{"scope-a", "scope-b"}) {
		t.Errorf("Scopes = %q", conf.Scopes)
	}
}

func TestNewConfig_NoCredentials(t *testing.T) {
	cfg := &config.Config{ClientSecretsFile: filepath.Join(t.TempDir(), "missing.json")}
	if _, err := NewConfig(cfg); err == nil {
		t.Error("NewConfig() without credentials should fail")
	}
}

func TestParseScopes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1}, // readonly default
		{"a b c", 3},
		{"a,b,c", 3},
		{"a, b c", 3},
	}
	for _, tt := range tests {
		if got := parseScopes(tt.in); len(got) != tt.want {
			t.Errorf("parseScopes(%q) = %q, want %d scopes", tt.in, got, tt.want)
		}
	}
}

func TestTokenSource_RequiresCachedToken(t *testing.T) {
	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "absent.json")}
	conf := &oauth2.Config{ClientID: "id"}
	if _, err := TokenSource(context.Background(), conf, store); err == nil {
		t.Error("TokenSource() without a cached token should fail")
	}
}
