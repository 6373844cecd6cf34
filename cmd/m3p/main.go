package main

import (
	"fmt"
	"os"

	"mp3player/cmd/m3p/cmd"
	"mp3player/internal/config"

	// Register transcription providers.
	_ "mp3player/internal/app/api/faster_whisper"
	_ "mp3player/internal/app/api/openai/whisper"
	_ "mp3player/internal/app/api/whisper_cpp"
	_ "mp3player/internal/app/api/whisper_server"
)

func main() {
	// Missing API keys only disable the features that need them.
	if _, err := config.InitializeConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration warning: %v\n", err)
	}

	cmd.Execute()
}
