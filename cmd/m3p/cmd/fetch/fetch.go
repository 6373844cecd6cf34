package fetch

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mp3player/internal/app/errors"
	"mp3player/internal/config"
	"mp3player/internal/fetch"
	"mp3player/internal/logging"
)

var dir string

func init() {
	Cmd.Flags().StringVarP(&dir, "dir", "d", "", "download directory (default: the files directory)")
}

// Cmd represents the fetch command
var Cmd = &cobra.Command{
	Use:   "fetch <episode-url>...",
	Short: "Download podcast episodes into the files directory",
	Long: `Fetch MP3 episodes from podcast episode pages. The audio URL is
resolved from the page's meta tags or embedded JSON payload. Files that
already exist with the right size are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs, err := config.GetDirs()
		if err != nil {
			return err
		}
		if dir == "" {
			dir = dirs.Files
		}

		log := logging.MustNew(logging.Options{LogDir: dirs.Logs, FileOnly: true})
		defer log.Sync()

		f := fetch.New(&http.Client{Timeout: 10 * time.Minute}, afero.NewOsFs(), log)
		f.ShowProgress = true

		failed := 0
		for _, r := range f.Batch(cmd.Context(), args, dir) {
			switch {
			case r.Err != nil:
				fmt.Fprintf(os.Stderr, "%s: %v\n", r.URL, r.Err)
				failed++
			case r.Skipped:
				fmt.Printf("up to date: %s\n", r.Path)
			default:
				fmt.Printf("fetched %s\n", r.Path)
			}
		}
		if failed > 0 {
			return errors.Newf("%d downloads failed", failed)
		}
		return nil
	},
}
