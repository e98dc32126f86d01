// Command list-voices prints the TTS voices installed on this machine, one
// per line, so an operator can pick a value for TTS_VOICE.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/onnwee/chat-speaker/speech"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	voices, err := speech.ListVoices(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list voices:", err)
		os.Exit(1)
	}
	for _, v := range voices {
		if v.Language != "" {
			fmt.Printf("%s\t%s\n", v.Name, v.Language)
		} else {
			fmt.Println(v.Name)
		}
	}
}
