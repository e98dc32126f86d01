// Package speech renders text as audible speech using the local TTS engine.
// Backends shell out to the platform tool (macOS say, Linux espeak, Windows
// System.Speech via PowerShell) and block the caller for the duration of
// speech. The backend is selected once at startup; platforms without a
// supported engine get ErrUnsupportedPlatform and can fall back to Null.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// ErrUnsupportedPlatform is returned when no TTS engine exists for this OS.
var ErrUnsupportedPlatform = errors.New("speech: no TTS engine for this platform")

// Synthesizer renders one utterance. Rate is in words per minute.
type Synthesizer interface {
	Speak(ctx context.Context, text, voice string, rate int) error
}

// New selects the platform backend. Callers that want to keep running on an
// unsupported platform should catch ErrUnsupportedPlatform and use Null.
func New() (Synthesizer, error) {
	switch runtime.GOOS {
	case "darwin":
		return &Say{}, nil
	case "linux":
		if _, err := exec.LookPath("espeak"); err != nil {
			return nil, fmt.Errorf("%w: espeak not installed", ErrUnsupportedPlatform)
		}
		return &ESpeak{}, nil
	case "windows":
		return &SAPI{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
	}
}

// Null logs utterances instead of rendering them. Used on unsupported
// platforms and for dry runs.
type Null struct {
	Logger *slog.Logger
}

func (n *Null) Speak(_ context.Context, text, voice string, rate int) error {
	log := n.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("speech disabled; would say", slog.String("text", text), slog.String("voice", voice), slog.Int("rate", rate))
	return nil
}
