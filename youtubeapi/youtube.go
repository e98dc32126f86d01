// Package youtubeapi wraps the YouTube Data API for the two calls the poller
// needs: resolving a video id to its active live-chat id, and fetching pages
// of live-chat messages. API failures are mapped onto the chat package's
// error taxonomy so the poll loop can dispatch on error kind.
package youtubeapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/chat-speaker/chat"
)

// maxResults is the page size requested from liveChatMessages.list.
const maxResults = 200

// Client implements chat.Resolver and chat.Transport on top of a YouTube
// Data API service.
type Client struct {
	svc *yt.Service
}

// New wraps an existing YouTube service.
func New(svc *yt.Service) *Client {
	return &Client{svc: svc}
}

// NewService builds a YouTube Data API service from an OAuth token source.
// Extra options (custom endpoint, no-auth) are appended for tests.
func NewService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*yt.Service, error) {
	all := make([]option.ClientOption, 0, len(opts)+1)
	if ts != nil {
		all = append(all, option.WithTokenSource(ts))
	}
	all = append(all, opts...)
	svc, err := yt.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("init youtube service: %w", err)
	}
	return svc, nil
}

// ResolveLiveChatID looks up the active live-chat id for a video.
// It fails with chat.ErrStreamNotFound, chat.ErrStreamNotLive, or
// chat.ErrChatNotActive; resolution is never retried here.
func (c *Client) ResolveLiveChatID(ctx context.Context, videoID string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("video id empty")
	}
	resp, err := c.svc.Videos.List([]string{"liveStreamingDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("videos.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: no video with id %s", chat.ErrStreamNotFound, videoID)
	}
	details := resp.Items[0].LiveStreamingDetails
	if details == nil {
		return "", fmt.Errorf("%w: video %s", chat.ErrStreamNotLive, videoID)
	}
	if details.ActiveLiveChatId == "" {
		return "", fmt.Errorf("%w: video %s has no active chat (not started or already over)", chat.ErrChatNotActive, videoID)
	}
	slog.Debug("resolved live chat id", slog.String("video_id", videoID), slog.String("live_chat_id", details.ActiveLiveChatId))
	return details.ActiveLiveChatId, nil
}

// FetchBatch retrieves the next page of chat messages. The returned token must
// be fed into the next call; an empty pageToken starts from the current live
// position. The server's pollingIntervalMillis is surfaced as a hint.
func (c *Client) FetchBatch(ctx context.Context, liveChatID, pageToken string) (chat.Batch, error) {
	call := c.svc.LiveChatMessages.List(liveChatID, []string{"snippet", "authorDetails"}).
		MaxResults(maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		if chat.IsChatEnded(err) {
			return chat.Batch{}, fmt.Errorf("%w: %v", chat.ErrChatEnded, err)
		}
		return chat.Batch{}, fmt.Errorf("liveChatMessages.list: %w", err)
	}

	msgs := make([]chat.Message, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil || item.AuthorDetails == nil {
			continue
		}
		msgs = append(msgs, chat.Message{
			ID:     item.Id,
			Author: item.AuthorDetails.DisplayName,
			Text:   item.Snippet.DisplayMessage,
		})
	}
	return chat.Batch{
		Messages:         msgs,
		NextToken:        resp.NextPageToken,
		PollIntervalHint: time.Duration(resp.PollingIntervalMillis) * time.Millisecond,
	}, nil
}
