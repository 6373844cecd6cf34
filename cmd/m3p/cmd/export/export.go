package export

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mp3player/internal/app"
	appexport "mp3player/internal/app/export"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/library"
)

var (
	format     string
	output     string
	timestamps bool
	parallel   int
	fromDB     bool
	limit      int
)

func init() {
	Cmd.Flags().StringVarP(&format, "format", "F", "txt", "output format: txt, md, lrc or xlsx")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "output path (single file or --library mode)")
	Cmd.Flags().BoolVar(&timestamps, "timestamps", false, "prefix txt lines with segment time ranges")
	Cmd.Flags().IntVar(&parallel, "parallel", 4, "worker pool size for batch exports")
	Cmd.Flags().BoolVar(&fromDB, "library", false, "export library transcripts instead of marker sidecars (xlsx)")
	Cmd.Flags().IntVar(&limit, "limit", 0, "library mode: max rows (0 = all recent)")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export [files...]",
	Short: "Export segment transcripts to txt, md, lrc or xlsx",
	Long: `Export the annotated segments of one or more MP3s from their marker
sidecars. With --library the transcript database is exported to an XLSX
workbook instead. With no arguments every MP3 in the files directory is
exported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := appexport.ParseFormat(format)
		if err != nil {
			return err
		}

		a, cleanup, err := app.InitializeApp(app.Options{SkipProviders: true})
		if err != nil {
			return err
		}
		defer cleanup()

		a.Exporter.Timestamps = timestamps

		if fromDB {
			return exportLibrary(cmd, a)
		}

		paths := args
		if len(paths) == 0 {
			paths, err = a.Library.AudioFiles(a.Dirs.Files)
			if err != nil {
				return err
			}
		} else {
			for i, p := range paths {
				resolved, rerr := library.Resolve(a.FS, a.Dirs, p)
				if rerr != nil {
					return rerr
				}
				paths[i] = resolved
			}
		}
		if len(paths) == 0 {
			return errors.New("nothing to export")
		}

		if len(paths) == 1 {
			out, err := a.Exporter.File(paths[0], f, output)
			if err != nil {
				return err
			}
			fmt.Printf("exported %s\n", out)
			return nil
		}

		if output != "" {
			return errors.New("--output applies to single-file exports only")
		}

		failed := 0
		for _, r := range a.Exporter.Batch(paths, f, appexport.BatchOptions{
			Parallel:     parallel,
			ShowProgress: true,
		}) {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", r.AudioPath, r.Err)
				failed++
				continue
			}
			fmt.Printf("exported %s\n", r.OutputPath)
		}
		if failed > 0 {
			return errors.Newf("%d exports failed", failed)
		}
		return nil
	},
}

func exportLibrary(cmd *cobra.Command, a *app.App) error {
	if output == "" {
		return errors.RequiredField("output")
	}

	rows, err := a.DB.GetRecent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.New("the library has no transcripts")
	}

	if err := a.Exporter.Library(rows, output); err != nil {
		return err
	}
	fmt.Printf("exported %d transcripts to %s\n", len(rows), output)
	return nil
}
