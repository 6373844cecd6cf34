package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"mp3player/cmd/m3p/cmd/export"
	"mp3player/cmd/m3p/cmd/fetch"
	"mp3player/cmd/m3p/cmd/markers"
	"mp3player/cmd/m3p/cmd/migrate"
	"mp3player/cmd/m3p/cmd/play"
	"mp3player/cmd/m3p/cmd/search"
	"mp3player/cmd/m3p/cmd/segments"
	"mp3player/cmd/m3p/cmd/serve"
	"mp3player/cmd/m3p/cmd/summarize"
	"mp3player/cmd/m3p/cmd/sync"
	"mp3player/cmd/m3p/cmd/transcribe"
	"mp3player/cmd/m3p/cmd/version"
	"mp3player/cmd/m3p/cmd/worker"
	"mp3player/internal/app"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "m3p",
	Short: "Marker-based MP3 practice player with transcription",
	Long: `m3p is a listening-practice tool: load an MP3, place time markers,
and the consecutive marker pairs become segments you can loop at
variable speed, transcribe with pluggable speech-to-text providers,
annotate, and export.`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(play.Cmd)
	rootCmd.AddCommand(markers.Cmd)
	rootCmd.AddCommand(segments.Cmd)
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(fetch.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(sync.Cmd)
	rootCmd.AddCommand(search.Cmd)
	rootCmd.AddCommand(summarize.Cmd)
	rootCmd.AddCommand(worker.Cmd)
	rootCmd.AddCommand(migrate.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "V", false, "verbose output")
}
