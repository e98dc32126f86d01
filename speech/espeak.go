package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// ESpeak renders speech through the espeak command on Linux.
type ESpeak struct {
	Bin string
}

func (e *ESpeak) bin() string {
	if e.Bin != "" {
		return e.Bin
	}
	return "espeak"
}

// espeakArgs builds the argument list. espeak's -s flag is words per minute,
// same unit as say's -r.
func espeakArgs(voice string, rate int, text string) []string {
	args := make([]string, 0, 5)
	if voice != "" {
		args = append(args, "-v", voice)
	}
	if rate > 0 {
		args = append(args, "-s", strconv.Itoa(rate))
	}
	return append(args, text)
}

// Speak blocks until the utterance finishes or ctx is cancelled.
func (e *ESpeak) Speak(ctx context.Context, text, voice string, rate int) error {
	cmd := exec.CommandContext(ctx, e.bin(), espeakArgs(voice, rate, text)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("espeak: %w (%s)", err, string(out))
	}
	return nil
}
