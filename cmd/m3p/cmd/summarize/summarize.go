package summarize

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mp3player/internal/app"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/library"
	"mp3player/internal/app/pipeline"
	"mp3player/internal/app/summarize"
	"mp3player/internal/config"
)

var geminiModel string

func init() {
	Cmd.Flags().StringVar(&geminiModel, "model", "", "Gemini model override")
}

// Cmd represents the summarize command
var Cmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Summarize a file's transcript",
	Long: `Summarize the transcript of one MP3 using Gemini (preferred when
GEMINI_API_KEY is set) or OpenAI chat. The transcript comes from the
library, falling back to the _transcription.txt sidecar.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := config.GetAPIKeys()
		if err != nil {
			return err
		}
		if err := config.RequireAPIKeys(keys); err != nil {
			return err
		}

		a, cleanup, err := app.InitializeApp(app.Options{SkipProviders: true})
		if err != nil {
			return err
		}
		defer cleanup()

		text, err := transcriptFor(cmd, a, args[0])
		if err != nil {
			return err
		}

		s := summarize.New(keys, a.Log)
		if geminiModel != "" {
			s.GeminiModel = geminiModel
		}

		summary, err := s.Summarize(cmd.Context(), text)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}

// transcriptFor collects the file's transcript text from library rows,
// falling back to the sidecar file.
func transcriptFor(cmd *cobra.Command, a *app.App, arg string) (string, error) {
	fileName := filepath.Base(arg)
	rows, err := a.DB.GetAllByFile(cmd.Context(), fileName)
	if err != nil {
		return "", err
	}
	if len(rows) > 0 {
		parts := make([]string, 0, len(rows))
		for _, t := range rows {
			parts = append(parts, t.Text)
		}
		return strings.Join(parts, "\n"), nil
	}

	path, err := library.Resolve(a.FS, a.Dirs, arg)
	if err != nil {
		return "", err
	}
	sidecar := pipeline.TranscriptSidecarPath(path)
	data, err := afero.ReadFile(a.FS, sidecar)
	if err != nil {
		return "", errors.Wrapf(errors.ErrFileNotFound,
			"no transcript for %s: transcribe it first", fileName)
	}
	return string(data), nil
}
