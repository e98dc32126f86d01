package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// authorizeTimeout bounds how long we wait for the browser redirect.
const authorizeTimeout = 5 * time.Minute

// Authorize runs the installed-app flow: it starts a localhost callback
// server, prints the consent URL for the operator to open, waits for the
// redirect, and exchanges the code for a token. The token is saved to store
// before returning.
func Authorize(ctx context.Context, conf *oauth2.Config, store *FileTokenStore, port int) (*oauth2.Token, error) {
	conf.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.FormValue("code")
		if code == "" {
			http.Error(w, "authentication failed: no authorization code received", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "Authentication successful. You can close this window now.")
		select {
		case codeCh <- code:
		default:
		}
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("oauth callback server failed", slog.Any("err", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	url := conf.AuthCodeURL("state", oauth2.AccessTypeOffline)
	slog.Info("open this URL in your browser and grant access", slog.String("url", url))

	waitCtx, cancel := context.WithTimeout(ctx, authorizeTimeout)
	defer cancel()

	var code string
	select {
	case code = <-codeCh:
	case <-waitCtx.Done():
		return nil, fmt.Errorf("authorization not completed: %w", waitCtx.Err())
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := store.Save(tok); err != nil {
		slog.Warn("failed to save token", slog.Any("err", err))
	}
	return tok, nil
}

// EnsureTokenSource loads the cached token or, if none exists, runs the
// interactive Authorize flow first, so first run opens the browser and later
// runs are headless.
func EnsureTokenSource(ctx context.Context, conf *oauth2.Config, store *FileTokenStore, port int) (oauth2.TokenSource, error) {
	if tok, err := store.Load(); err == nil {
		return NewSavingTokenSource(conf.TokenSource(ctx, tok), store), nil
	}
	slog.Info("no cached token; starting interactive authorization")
	tok, err := Authorize(ctx, conf, store, port)
	if err != nil {
		return nil, err
	}
	return NewSavingTokenSource(conf.TokenSource(ctx, tok), store), nil
}
