package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// MockYouTubeServer creates a test server that mocks the YouTube Data API
// endpoints the bot uses (videos.list, liveChatMessages.list).
type MockYouTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockYouTubeServer creates a new mock YouTube API server. Handlers are
// keyed by path suffix so the client library's base-path prefix doesn't
// matter.
func NewMockYouTubeServer(t *testing.T) *MockYouTubeServer {
	t.Helper()
	m := &MockYouTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for suffix, handler := range m.Handlers {
			if strings.HasSuffix(r.URL.Path, suffix) {
				handler(w, r)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockVideoResponse serves a videos.list result with the given
// liveStreamingDetails body; pass nil for a video with no live details, and
// found=false for an empty item list.
func (m *MockYouTubeServer) MockVideoResponse(videoID string, details map[string]any, found bool) {
	m.Handlers["/videos"] = func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]any{}
		if found {
			item := map[string]any{"id": videoID}
			if details != nil {
				item["liveStreamingDetails"] = details
			}
			items = append(items, item)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items}) //nolint:errcheck // test mock response
	}
}

// ChatItem is one canned liveChatMessages.list item.
type ChatItem struct {
	ID     string
	Author string
	Text   string
}

// MockLiveChatMessages serves a liveChatMessages.list page.
func (m *MockYouTubeServer) MockLiveChatMessages(items []ChatItem, nextToken string, pollMillis int64) {
	m.Handlers["/liveChat/messages"] = func(w http.ResponseWriter, r *http.Request) {
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			out = append(out, map[string]any{
				"id":            it.ID,
				"snippet":       map[string]any{"displayMessage": it.Text},
				"authorDetails": map[string]any{"displayName": it.Author},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test mock response
			"items":                 out,
			"nextPageToken":         nextToken,
			"pollingIntervalMillis": pollMillis,
		})
	}
}

// MockLiveChatError serves a googleapi-style error for liveChatMessages.list.
func (m *MockYouTubeServer) MockLiveChatError(status int, reason, message string) {
	m.Handlers["/liveChat/messages"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test mock response
			"error": map[string]any{
				"code":    status,
				"message": message,
				"errors": []map[string]any{
					{"reason": reason, "message": message},
				},
			},
		})
	}
}
