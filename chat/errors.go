package chat

import (
	"errors"
	"strings"

	"google.golang.org/api/googleapi"
)

// Resolution failures. These are fatal: the poller reports them once and never starts.
var (
	// ErrStreamNotFound indicates no video matches the configured id.
	ErrStreamNotFound = errors.New("stream not found")
	// ErrStreamNotLive indicates the video exists but carries no live-streaming details.
	ErrStreamNotLive = errors.New("video is not a live stream")
	// ErrChatNotActive indicates the stream is live but chat has not started or already ended.
	ErrChatNotActive = errors.New("live chat is not active")
)

// ErrChatEnded indicates the chat session closed while polling. It is
// fatal-but-graceful: the poller stops and the process exits with a diagnostic.
var ErrChatEnded = errors.New("live chat has ended")

// ErrorClass represents whether a poll-cycle error should be retried or not.
type ErrorClass int

const (
	// ErrorClassRetryable indicates the poller should back off and retry (transient errors).
	ErrorClassRetryable ErrorClass = iota
	// ErrorClassFatal indicates the poller should stop (resolution failures, chat ended).
	ErrorClassFatal
)

// String returns a human-readable name for the error class.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorClassRetryable:
		return "retryable"
	case ErrorClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify sorts poll-cycle errors into retryable vs fatal.
//
// Fatal:
// - resolution failures (stream not found / not live / chat not active)
// - chat ended
//
// Retryable:
//   - network errors, 5xx, rate limiting (429/403 quota), and anything
//     unclassified. Live-chat sessions are expected to outlast transient
//     service errors, so unknown errors default to retry rather than
//     terminating a long-running bot.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorClassRetryable
	}
	switch {
	case errors.Is(err, ErrStreamNotFound),
		errors.Is(err, ErrStreamNotLive),
		errors.Is(err, ErrChatNotActive),
		errors.Is(err, ErrChatEnded):
		return ErrorClassFatal
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		for _, item := range apiErr.Errors {
			switch item.Reason {
			case "liveChatEnded", "liveChatNotFound", "liveChatDisabled":
				return ErrorClassFatal
			}
		}
	}
	if strings.Contains(err.Error(), "liveChatEnded") {
		return ErrorClassFatal
	}

	return ErrorClassRetryable
}

// IsChatEnded reports whether an error means the chat session closed, either
// via the sentinel or the API error reason.
func IsChatEnded(err error) bool {
	if errors.Is(err, ErrChatEnded) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		for _, item := range apiErr.Errors {
			if item.Reason == "liveChatEnded" {
				return true
			}
		}
	}
	return false
}
