package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// SAPI renders speech on Windows through System.Speech, driven by PowerShell.
type SAPI struct {
	Bin string
}

func (s *SAPI) bin() string {
	if s.Bin != "" {
		return s.Bin
	}
	return "powershell"
}

// sapiRate maps words per minute onto the System.Speech -10..10 scale, where
// 0 is roughly 180 wpm and each step is about 20 wpm.
func sapiRate(wpm int) int {
	r := (wpm - 180) / 20
	if r < -10 {
		r = -10
	}
	if r > 10 {
		r = 10
	}
	return r
}

// sapiScript builds the PowerShell snippet. Text goes in single quotes with
// embedded quotes doubled, PowerShell's escaping rule.
func sapiScript(text, voice string, rate int) string {
	quote := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
	var b strings.Builder
	b.WriteString("Add-Type -AssemblyName System.Speech; ")
	b.WriteString("$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; ")
	if voice != "" {
		fmt.Fprintf(&b, "try { $s.SelectVoice(%s) } catch {}; ", quote(voice))
	}
	fmt.Fprintf(&b, "$s.Rate = %d; ", sapiRate(rate))
	fmt.Fprintf(&b, "$s.Speak(%s)", quote(text))
	return b.String()
}

// Speak blocks until the utterance finishes or ctx is cancelled.
func (s *SAPI) Speak(ctx context.Context, text, voice string, rate int) error {
	cmd := exec.CommandContext(ctx, s.bin(), "-NoProfile", "-NonInteractive", "-Command", sapiScript(text, voice, rate))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sapi: %w (%s)", err, string(out))
	}
	return nil
}
