package transcribe

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mp3player/internal/app"
	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/jobs"
	"mp3player/internal/app/library"
	"mp3player/internal/app/marker"
	"mp3player/internal/app/pipeline"
	"mp3player/internal/config"
)

var (
	providerName string
	language     string
	start        float64
	end          float64
	segments     bool
	parallel     int
	force        bool
	limit        int
	sidecar      bool
	output       string
	distributed  bool
	wait         bool
)

func init() {
	Cmd.Flags().StringVarP(&providerName, "provider", "p", "", "pin a transcription provider (default: configured chain)")
	Cmd.Flags().StringVarP(&language, "language", "l", "", "language hint, e.g. en")
	Cmd.Flags().Float64Var(&start, "start", -1, "range mode: segment start in seconds")
	Cmd.Flags().Float64Var(&end, "end", -1, "range mode: segment end in seconds")
	Cmd.Flags().BoolVar(&segments, "segments", false, "transcribe each marker-delimited segment into the sidecar")
	Cmd.Flags().IntVar(&parallel, "parallel", 2, "worker pool size for batches")
	Cmd.Flags().BoolVar(&force, "force", false, "re-transcribe files the library already has")
	Cmd.Flags().IntVar(&limit, "limit", 0, "max new files per directory run (0 = all)")
	Cmd.Flags().BoolVar(&sidecar, "sidecar", true, "write <name>_transcription.txt next to each file")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "range mode: write the transcript here instead of stdout")
	Cmd.Flags().BoolVar(&distributed, "distributed", false, "submit to the Temporal task queue instead of running locally")
	Cmd.Flags().BoolVar(&wait, "wait", true, "distributed mode: wait for results")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe [files or directory]",
	Short: "Transcribe MP3 files, a time range, or marker segments",
	Long: `Transcribe whole files (recording results in the library), one time
range of a file, or every marker-delimited segment of a file.

With no arguments the whole files directory is processed. Range mode
(--start/--end) and segment mode (--segments) operate on exactly one
file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rangeMode := start >= 0 || end >= 0
		if rangeMode {
			if start < 0 || end < 0 {
				return errors.New("range mode requires both --start and --end")
			}
			if end <= start {
				return errors.InvalidField("end", "must be greater than --start")
			}
		}
		if rangeMode && segments {
			return errors.New("--start/--end and --segments are mutually exclusive")
		}
		if (rangeMode || segments) && len(args) != 1 {
			return errors.New("range and segment modes take exactly one file")
		}

		if providerName != "" {
			provider.Runtime().SetProvider(providerName)
		}
		if language != "" {
			provider.Runtime().SetLanguage(language)
		}

		a, cleanup, err := app.InitializeApp(app.Options{})
		if err != nil {
			return err
		}
		defer cleanup()

		if distributed {
			return runDistributed(cmd, a, args)
		}
		if err := a.RequireStack(); err != nil {
			return err
		}

		switch {
		case rangeMode:
			return runRange(cmd, a, args[0])
		case segments:
			return runSegments(cmd, a, args[0])
		default:
			return runBatch(cmd, a, args)
		}
	},
}

func runRange(cmd *cobra.Command, a *app.App, path string) error {
	resolved, err := library.Resolve(a.FS, a.Dirs, path)
	if err != nil {
		return err
	}

	text, err := a.Stack.Transcriber.TranscriptSegment(resolved, start, end)
	if err != nil {
		return err
	}

	if output != "" {
		if err := afero.WriteFile(a.FS, output, []byte(text+"\n"), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", output)
		}
		fmt.Printf("transcript written to %s\n", output)
		return nil
	}

	banner := strings.Repeat("=", 60)
	fmt.Println(banner)
	fmt.Println(text)
	fmt.Println(banner)
	return nil
}

func runSegments(cmd *cobra.Command, a *app.App, path string) error {
	resolved, err := library.Resolve(a.FS, a.Dirs, path)
	if err != nil {
		return err
	}

	result, err := a.Pipeline.TranscribeSegments(cmd.Context(), resolved, marker.NewStore(a.FS), pipeline.Options{
		Parallel:     parallel,
		Force:        force,
		ShowProgress: true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("segments: %d transcribed, %d skipped, %d failed\n",
		result.Transcribed, result.Skipped, result.Failed)
	if result.Failed > 0 {
		return errors.Newf("%d segments failed", result.Failed)
	}
	return nil
}

func runBatch(cmd *cobra.Command, a *app.App, args []string) error {
	opts := pipeline.Options{
		Parallel:     parallel,
		Force:        force,
		WriteSidecar: sidecar,
		ShowProgress: true,
	}

	var (
		result *pipeline.BatchResult
		err    error
	)
	switch {
	case len(args) == 0:
		result, err = a.Pipeline.TranscribeDirectory(cmd.Context(), a.Dirs.Files, limit, opts)
	case len(args) == 1 && isDir(args[0]):
		result, err = a.Pipeline.TranscribeDirectory(cmd.Context(), args[0], limit, opts)
	default:
		paths := make([]string, 0, len(args))
		for _, arg := range args {
			resolved, rerr := library.Resolve(a.FS, a.Dirs, arg)
			if rerr != nil {
				return rerr
			}
			paths = append(paths, resolved)
		}
		result, err = a.Pipeline.TranscribeFiles(cmd.Context(), paths, opts)
	}
	if err != nil {
		return err
	}

	fmt.Printf("done: %d transcribed, %d skipped, %d failed\n",
		result.Processed, result.Skipped, result.Failed)
	if result.Failed > 0 {
		return errors.Newf("%d files failed", result.Failed)
	}
	return nil
}

func runDistributed(cmd *cobra.Command, a *app.App, args []string) error {
	cfg := config.GetTemporalConfig()
	if !cfg.Enabled() {
		return errors.Wrap(errors.ErrInvalidConfig, "distributed transcription requires TEMPORAL_HOST")
	}

	paths := args
	if len(paths) == 0 {
		var err error
		paths, err = a.Library.AudioFiles(a.Dirs.Files)
		if err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		return errors.New("nothing to transcribe")
	}

	submitter, err := jobs.NewSubmitter(cfg, a.Log)
	if err != nil {
		return err
	}
	defer submitter.Close()

	ctx := cmd.Context()
	workflowIDs := make([]string, 0, len(paths))
	for _, path := range paths {
		resolved, rerr := library.Resolve(a.FS, a.Dirs, path)
		if rerr != nil {
			return rerr
		}
		id, serr := submitter.Submit(ctx, jobs.TranscribeRequest{
			FilePath: resolved,
			Provider: providerName,
			Language: language,
		})
		if serr != nil {
			return serr
		}
		fmt.Printf("submitted %s as %s\n", resolved, id)
		workflowIDs = append(workflowIDs, id)
	}

	if !wait {
		return nil
	}

	failed := 0
	for _, id := range workflowIDs {
		result, werr := submitter.Wait(ctx, id, func(status string) {
			a.Log.Debug("workflow status: " + status)
		})
		if werr != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, werr)
			failed++
			continue
		}
		fmt.Printf("%s: %s (%s)\n", id, result.SidecarPath, result.Provider)
	}
	if failed > 0 {
		return errors.Newf("%d jobs failed", failed)
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
