package speech

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

// Voice is one installed TTS voice.
type Voice struct {
	Name     string
	Language string
}

// ListVoices enumerates the voices installed on this machine. It is advisory:
// failures return ErrUnsupportedPlatform or the underlying command error, and
// callers should treat an empty list as "unknown", not "none".
func ListVoices(ctx context.Context) ([]Voice, error) {
	switch runtime.GOOS {
	case "darwin":
		out, err := exec.CommandContext(ctx, "say", "-v", "?").Output()
		if err != nil {
			return nil, fmt.Errorf("say -v ?: %w", err)
		}
		return parseSayVoices(string(out)), nil
	case "linux":
		out, err := exec.CommandContext(ctx, "espeak", "--voices").Output()
		if err != nil {
			return nil, fmt.Errorf("espeak --voices: %w", err)
		}
		return parseESpeakVoices(string(out)), nil
	case "windows":
		script := "Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).GetInstalledVoices() | ForEach-Object { $_.VoiceInfo.Name }"
		out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script).Output()
		if err != nil {
			return nil, fmt.Errorf("list sapi voices: %w", err)
		}
		var voices []Voice
		for _, line := range strings.Split(string(out), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				voices = append(voices, Voice{Name: line})
			}
		}
		return voices, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
	}
}

// say -v ? lines look like "Samantha            en_US    # Hello, my name is
// Samantha." Voice names may contain spaces, so split on the locale tag.
var sayVoiceLine = regexp.MustCompile(`^(.*?)\s+([a-z]{2,3}[_-][A-Za-z0-9-]+)\s*(?:#.*)?$`)

func parseSayVoices(out string) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t")
		if line == "" {
			continue
		}
		m := sayVoiceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		voices = append(voices, Voice{Name: strings.TrimSpace(m[1]), Language: m[2]})
	}
	return voices
}

// espeak --voices columns: Pty Language Age/Gender VoiceName File Other.
func parseESpeakVoices(out string) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(strings.NewReader(out))
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if first { // header row
			first = false
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{Name: fields[3], Language: fields[1]})
	}
	return voices
}

// Names flattens a voice list for log output.
func Names(voices []Voice) []string {
	out := make([]string, len(voices))
	for i, v := range voices {
		out[i] = v.Name
	}
	return out
}
