package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/chat-speaker/telemetry"
)

// Message is a single live-chat message. Identity is ID; two messages with the
// same id are the same event.
type Message struct {
	ID     string
	Author string
	Text   string
}

// Batch is one page of chat messages plus the cursor for the next poll.
// PollIntervalHint is the server-suggested minimum wait before the next fetch;
// zero means no hint.
type Batch struct {
	Messages         []Message
	NextToken        string
	PollIntervalHint time.Duration
}

// Resolver resolves a stream id to its active live-chat id.
type Resolver interface {
	ResolveLiveChatID(ctx context.Context, videoID string) (string, error)
}

// Transport fetches the next page of chat messages. It is stateless between
// calls except for the token it returns.
type Transport interface {
	FetchBatch(ctx context.Context, liveChatID, pageToken string) (Batch, error)
}

// Speaker renders one utterance. Implementations may block for the duration of
// speech.
type Speaker interface {
	Speak(ctx context.Context, text, voice string, rate int) error
}

// State is the poller lifecycle state.
type State string

const (
	StateStarting State = "starting"
	StatePolling  State = "polling"
	StateBackoff  State = "backoff"
	StateStopped  State = "stopped"
)

// Options configures a Poller. All fields are read once at construction and
// never mutated afterwards.
type Options struct {
	VideoID        string
	AllowedAuthors []string
	// AuthorAliases substitutes the spoken author label at render time only;
	// it never affects identity or filtering.
	AuthorAliases map[string]string
	Voice         string
	Rate          int
	// PollInterval is the cadence between fetches (default 5s). The poller
	// never polls faster than the server's interval hint.
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Status is a point-in-time view of the poller for the /status endpoint.
type Status struct {
	State         State     `json:"state"`
	LiveChatID    string    `json:"live_chat_id,omitempty"`
	MessagesSeen  int       `json:"messages_seen"`
	HasToken      bool      `json:"has_token"`
	LastPollAt    time.Time `json:"last_poll_at,omitzero"`
	LastError     string    `json:"last_error,omitempty"`
	FetchFailures int       `json:"fetch_failures"`
}

// Poller is the poll-dedupe-render loop. It is single-threaded: Run owns all
// mutable state; the mutex exists only so Snapshot can be read from the HTTP
// status handler while Run is in flight.
type Poller struct {
	resolver  Resolver
	transport Transport
	speaker   Speaker

	allowed  map[string]struct{}
	aliases  map[string]string
	voice    string
	rate     int
	interval time.Duration
	videoID  string
	log      *slog.Logger

	mu         sync.Mutex
	state      State
	liveChatID string
	token      string
	seen       map[string]struct{}
	lastPoll   time.Time
	lastErr    string
	failures   int
}

// NewPoller constructs a poller with an empty seen set. A poller runs once;
// after it stops, build a new one to start over.
func NewPoller(r Resolver, t Transport, s Speaker, opts Options) *Poller {
	allowed := make(map[string]struct{}, len(opts.AllowedAuthors))
	for _, a := range opts.AllowedAuthors {
		allowed[a] = struct{}{}
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		resolver:  r,
		transport: t,
		speaker:   s,
		allowed:   allowed,
		aliases:   opts.AuthorAliases,
		voice:     opts.Voice,
		rate:      opts.Rate,
		interval:  interval,
		videoID:   opts.VideoID,
		log:       log,
		state:     StateStarting,
		seen:      make(map[string]struct{}),
	}
}

// Snapshot returns the current status. Safe to call concurrently with Run.
func (p *Poller) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		State:         p.state,
		LiveChatID:    p.liveChatID,
		MessagesSeen:  len(p.seen),
		HasToken:      p.token != "",
		LastPollAt:    p.lastPoll,
		LastError:     p.lastErr,
		FetchFailures: p.failures,
	}
}

// Run resolves the live-chat id and polls until the chat ends, a resolution
// failure occurs, or ctx is cancelled. It returns nil only on cancellation
// observed as a clean stop; chat-ended and resolution failures are returned
// so the caller can exit with a diagnostic.
func (p *Poller) Run(ctx context.Context) error {
	defer p.setState(StateStopped)

	liveChatID, err := p.resolver.ResolveLiveChatID(ctx, p.videoID)
	if err != nil {
		p.noteError(err)
		return fmt.Errorf("resolve live chat for video %s: %w", p.videoID, err)
	}
	p.mu.Lock()
	p.liveChatID = liveChatID
	p.state = StatePolling
	p.mu.Unlock()
	p.log.Info("attached to live chat", slog.String("video_id", p.videoID), slog.String("live_chat_id", liveChatID))

	for {
		if ctx.Err() != nil {
			return nil
		}

		fetchCtx, span := telemetry.StartSpan(ctx, "chat-poller", "fetch-batch",
			telemetry.LiveChatIDAttr(liveChatID))
		batch, err := p.transport.FetchBatch(fetchCtx, liveChatID, p.currentToken())
		telemetry.RecordError(span, err)
		span.End()
		p.notePoll()
		telemetry.IncPollCycles()

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if IsChatEnded(err) {
				p.log.Info("live chat ended; stopping", slog.Any("err", err))
				if !errors.Is(err, ErrChatEnded) {
					// Attach the sentinel while keeping the transport's
					// diagnostic for the exit log.
					err = fmt.Errorf("%w: %v", ErrChatEnded, err)
				}
				return err
			}
			if Classify(err) == ErrorClassFatal {
				p.noteError(err)
				return err
			}
			// Transient: keep the last known-good token and retry after the
			// fixed interval. Unbounded retries; live chats recover.
			p.noteError(err)
			telemetry.IncFetchErrors()
			p.setState(StateBackoff)
			p.log.Warn("chat fetch failed; backing off", slog.Any("err", err), slog.Duration("backoff", p.interval))
			if !sleep(ctx, p.interval) {
				return nil
			}
			p.setState(StatePolling)
			continue
		}

		for _, msg := range batch.Messages {
			if ctx.Err() != nil {
				return nil
			}
			p.handle(ctx, msg)
		}

		// The token advances only after the whole batch is processed. A crash
		// mid-batch re-polls with the old token; the seen set makes the
		// replayed prefix a no-op.
		if batch.NextToken != "" {
			p.setToken(batch.NextToken)
		}

		wait := p.interval
		if batch.PollIntervalHint > wait {
			wait = batch.PollIntervalHint
		}
		if !sleep(ctx, wait) {
			return nil
		}
	}
}

// handle runs one message through the pipeline: seen-check, mark seen,
// allow-list, alias, speak. Speech errors are logged and dropped; the message
// stays marked seen either way.
func (p *Poller) handle(ctx context.Context, msg Message) {
	p.mu.Lock()
	if _, dup := p.seen[msg.ID]; dup {
		p.mu.Unlock()
		return
	}
	p.seen[msg.ID] = struct{}{}
	n := len(p.seen)
	p.mu.Unlock()

	telemetry.IncMessagesSeen()
	telemetry.SetSeenSetSize(n)

	if _, ok := p.allowed[msg.Author]; !ok {
		telemetry.IncMessagesFiltered()
		p.log.Debug("author not allowed; dropping", slog.String("author", msg.Author), slog.String("id", msg.ID))
		return
	}

	label := msg.Author
	if alias, ok := p.aliases[msg.Author]; ok {
		label = alias
	}
	line := fmt.Sprintf("%s says: %s", label, msg.Text)
	p.log.Info("speaking", slog.String("author", label), slog.String("text", msg.Text))

	var err error
	telemetry.TimeFunc(telemetry.SpeechDuration, func() {
		err = p.speaker.Speak(ctx, line, p.voice, p.rate)
	})
	if err != nil {
		// Best effort: never re-queue, never stop the loop.
		telemetry.IncSpeechErrors()
		p.log.Error("speech failed", slog.Any("err", err), slog.String("id", msg.ID))
		return
	}
	telemetry.IncMessagesSpoken()
}

func (p *Poller) currentToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

func (p *Poller) setToken(tok string) {
	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Poller) notePoll() {
	p.mu.Lock()
	p.lastPoll = time.Now().UTC()
	p.mu.Unlock()
}

func (p *Poller) noteError(err error) {
	p.mu.Lock()
	p.lastErr = err.Error()
	p.failures++
	p.mu.Unlock()
}

// sleep waits for d or until ctx is cancelled; it reports whether the full
// wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
