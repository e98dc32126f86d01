package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Say renders speech through the macOS `say` command. Bin overrides the
// binary path (tests point it at a stub script).
type Say struct {
	Bin string
}

func (s *Say) bin() string {
	if s.Bin != "" {
		return s.Bin
	}
	return "say"
}

// sayArgs builds the argument list. Voice and rate are optional; `say` reads
// the text from the trailing arguments.
func sayArgs(voice string, rate int, text string) []string {
	args := make([]string, 0, 5)
	if voice != "" {
		args = append(args, "-v", voice)
	}
	if rate > 0 {
		args = append(args, "-r", strconv.Itoa(rate))
	}
	return append(args, text)
}

// Speak blocks until the utterance finishes or ctx is cancelled.
func (s *Say) Speak(ctx context.Context, text, voice string, rate int) error {
	cmd := exec.CommandContext(ctx, s.bin(), sayArgs(voice, rate, text)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("say: %w (%s)", err, string(out))
	}
	return nil
}
