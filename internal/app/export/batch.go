package export

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"
)

// BatchOptions tunes a multi-file export run.
type BatchOptions struct {
	// Parallel is the worker pool size, minimum 1.
	Parallel int
	// ShowProgress renders an mpb bar when exporting several files.
	ShowProgress bool
	// ProgressOut overrides the progress destination, default stderr.
	ProgressOut io.Writer
}

// BatchResult is the outcome for one file in a batch export.
type BatchResult struct {
	AudioPath  string
	OutputPath string
	Err        error
}

// Batch exports every audio file's segments through a bounded worker
// pool. Per-file failures are reported, not fatal.
func (e *Exporter) Batch(audioPaths []string, format Format, opts BatchOptions) []BatchResult {
	if len(audioPaths) == 0 {
		return nil
	}

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}

	var bar *mpb.Bar
	var progress *mpb.Progress
	if opts.ShowProgress && len(audioPaths) > 1 {
		mpbOpts := []mpb.ContainerOption{mpb.WithWidth(60)}
		if opts.ProgressOut != nil {
			mpbOpts = append(mpbOpts, mpb.WithOutput(opts.ProgressOut))
		}
		progress = mpb.New(mpbOpts...)
		bar = progress.New(int64(len(audioPaths)),
			mpb.BarStyle(),
			mpb.PrependDecorators(decor.Name("Exporting ")),
			mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
		)
	}

	results := make([]BatchResult, len(audioPaths))
	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)

	for i, path := range audioPaths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			if bar != nil {
				defer bar.Increment()
			}

			sem <- struct{}{}
			out, err := e.File(path, format, "")
			<-sem

			results[i] = BatchResult{AudioPath: path, OutputPath: out, Err: err}
			if err != nil {
				e.log.Warn("export failed",
					zap.String("audio", path),
					zap.Error(err))
			}
		}(i, path)
	}
	wg.Wait()
	if progress != nil {
		progress.Wait()
	}

	return results
}
