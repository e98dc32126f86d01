package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/onnwee/chat-speaker/chat"
	"github.com/onnwee/chat-speaker/telemetry"
)

func testStatus() chat.Status {
	return chat.Status{
		State:        chat.StatePolling,
		LiveChatID:   "chat-abc",
		MessagesSeen: 7,
		HasToken:     true,
		LastPollAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewMux(testStatus))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(NewMux(testStatus))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var got chat.Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if got.State != chat.StatePolling || got.MessagesSeen != 7 || !got.HasToken {
		t.Errorf("status = %+v", got)
	}
}

func TestStatus_NilFunc(t *testing.T) {
	srv := httptest.NewServer(NewMux(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	telemetry.Init()
	srv := httptest.NewServer(NewMux(testStatus))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "chat_poll_cycles_total") {
		t.Error("metrics output missing chat_poll_cycles_total")
	}
}

// syncBuffer guards the log buffer; the handler writes from the server
// goroutine while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRequestLogIncludesCorrelation(t *testing.T) {
	var buf syncBuffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	srv := httptest.NewServer(NewMux(testStatus))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-log-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	logged := buf.String()
	if !strings.Contains(logged, "corr-log-1") {
		t.Errorf("request log missing correlation id: %s", logged)
	}
	if !strings.Contains(logged, "/healthz") {
		t.Errorf("request log missing path: %s", logged)
	}
}

func TestCorrelationHeader(t *testing.T) {
	srv := httptest.NewServer(NewMux(testStatus))
	defer srv.Close()

	// Generated when absent.
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Correlation-ID") == "" {
		t.Error("missing generated X-Correlation-ID")
	}

	// Echoed when provided.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-42")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Correlation-ID"); got != "corr-42" {
		t.Errorf("X-Correlation-ID = %q, want corr-42", got)
	}
}
