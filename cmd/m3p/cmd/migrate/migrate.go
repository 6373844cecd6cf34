package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"mp3player/internal/app/errors"
	"mp3player/internal/app/repository/migrate"
	"mp3player/internal/app/repository/pg"
	"mp3player/internal/app/repository/sqlite"
	"mp3player/internal/config"
	"mp3player/internal/logging"
)

var (
	sourcePath string
	checkpoint string
	all        bool
)

func init() {
	Cmd.Flags().StringVar(&sourcePath, "source", "", "SQLite database to migrate (default: the configured library)")
	Cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "checkpoint file (default: <data>/migrate.checkpoint)")
	Cmd.Flags().BoolVar(&all, "all", true, "run batches until the source is exhausted")
}

// Cmd represents the migrate command
var Cmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the SQLite library into PostgreSQL",
	Long: `Migrate transcript rows from the SQLite library to PostgreSQL,
resumable via a checkpoint file. The destination comes from
DATABASE_URL or the DB_* variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs, err := config.GetDirs()
		if err != nil {
			return err
		}
		if sourcePath == "" {
			sourcePath = dirs.DBPath()
		}
		if checkpoint == "" {
			checkpoint = dirs.Data + "/migrate.checkpoint"
		}

		dsn := config.GetPostgresDSN()
		if dsn == "" {
			return errors.Wrap(errors.ErrInvalidConfig, "migration requires DATABASE_URL or DB_* settings")
		}

		log := logging.MustNew(logging.Options{LogDir: dirs.Logs})
		defer log.Sync()

		source, err := sqlite.New(sourcePath)
		if err != nil {
			return err
		}
		defer source.Close()

		dest, err := pg.New(dsn)
		if err != nil {
			return err
		}
		defer dest.Close()

		m := migrate.New(source.DB(), dest.DB(), checkpoint, log)

		ctx := cmd.Context()
		var result *migrate.Result
		if all {
			result, err = m.RunAll(ctx)
		} else {
			result, err = m.Run(ctx)
		}
		if err != nil {
			return err
		}

		fmt.Printf("migrated %d rows, skipped %d (last id %d)\n",
			result.Migrated, result.Skipped, result.LastID)
		if !result.Done {
			fmt.Println("more rows remain; run again to continue")
		}
		return nil
	},
}
