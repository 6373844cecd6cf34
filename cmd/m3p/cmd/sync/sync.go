package sync

import (
	"fmt"

	"github.com/spf13/cobra"

	"mp3player/internal/app"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/storage/objectstore"
	"mp3player/internal/config"
)

var down bool

func init() {
	Cmd.Flags().BoolVar(&down, "down", false, "restore from the bucket instead of uploading")
}

// Cmd represents the sync command
var Cmd = &cobra.Command{
	Use:   "sync",
	Short: "Back up the files directory to S3-compatible object storage",
	Long: `Sync audio files, marker sidecars and exports between the files
directory and a MinIO/S3 bucket. Unchanged objects (same size) are
skipped. Configure with MINIO_ENDPOINT, MINIO_ACCESS_KEY,
MINIO_SECRET_KEY, MINIO_BUCKET and MINIO_USE_SSL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := app.InitializeApp(app.Options{SkipProviders: true})
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		client, err := objectstore.New(ctx, config.GetObjectStoreConfig(), a.Log)
		if err != nil {
			return err
		}

		var result *objectstore.SyncResult
		if down {
			result, err = client.SyncDown(ctx, a.Dirs.Files)
		} else {
			result, err = client.SyncUp(ctx, a.Dirs.Files)
		}
		if err != nil {
			return err
		}

		fmt.Printf("sync done: %d uploaded, %d downloaded, %d skipped, %d failed\n",
			result.Uploaded, result.Downloaded, result.Skipped, result.Failed)
		if result.Failed > 0 {
			return errors.Newf("%d objects failed", result.Failed)
		}
		return nil
	},
}
