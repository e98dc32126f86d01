// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles       prometheus.Counter
	FetchErrors      prometheus.Counter
	MessagesSeen     prometheus.Counter
	MessagesSpoken   prometheus.Counter
	MessagesFiltered prometheus.Counter
	SpeechErrors     prometheus.Counter

	// Histograms (seconds)
	SpeechDuration prometheus.Observer

	// Gauges
	SeenSetSizeGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_poll_cycles_total", Help: "Number of chat poll cycles (fetch attempts)"})
		FetchErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_fetch_errors_total", Help: "Number of transient chat fetch failures"})
		MessagesSeen = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_seen_total", Help: "Number of unique chat messages processed"})
		MessagesSpoken = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_spoken_total", Help: "Number of messages rendered as speech"})
		MessagesFiltered = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_filtered_total", Help: "Number of messages dropped by the author allow-list"})
		SpeechErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_speech_errors_total", Help: "Number of speech rendering failures"})
		SpeechDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chat_speech_duration_seconds", Help: "Speech rendering duration seconds", Buckets: prometheus.DefBuckets})
		SeenSetSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_seen_set_size", Help: "Current number of message ids in the de-duplication set"})
	})
}

// The Inc/Set/Observe helpers below are nil-safe so callers work whether or
// not Init ran (tests exercise the poller without a metrics registry).

func IncPollCycles()       { if PollCycles != nil { PollCycles.Inc() } }
func IncFetchErrors()      { if FetchErrors != nil { FetchErrors.Inc() } }
func IncMessagesSeen()     { if MessagesSeen != nil { MessagesSeen.Inc() } }
func IncMessagesSpoken()   { if MessagesSpoken != nil { MessagesSpoken.Inc() } }
func IncMessagesFiltered() { if MessagesFiltered != nil { MessagesFiltered.Inc() } }
func IncSpeechErrors()     { if SpeechErrors != nil { SpeechErrors.Inc() } }

// SetSeenSetSize records the current de-duplication set size.
func SetSeenSetSize(n int) { if SeenSetSizeGauge != nil { SeenSetSizeGauge.Set(float64(n)) } }

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil { obs.Observe(d.Seconds()) }
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LogAttrs returns slog attributes enriched with the correlation id when present.
func LogAttrs(ctx context.Context, attrs ...slog.Attr) []slog.Attr {
	if corr := GetCorrelation(ctx); corr != "" {
		attrs = append(attrs, slog.String("correlation_id", corr))
	}
	return attrs
}
