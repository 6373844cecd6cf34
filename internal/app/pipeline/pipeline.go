// Package pipeline runs batch transcription over audio files and
// marker-driven segment transcription, recording results in the
// transcript library.
package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/library"
	"mp3player/internal/app/model"
	"mp3player/internal/app/repository"
)

// Transcriber is what the pipeline needs from the transcription stack.
// provider.TranscriberAdapter satisfies it.
type Transcriber interface {
	TranscriptDetailed(inputFilePath string) (*provider.TranscriptionResponse, error)
	TranscriptSegment(inputFilePath string, startSec, endSec float64) (string, error)
}

// Options tunes one batch run.
type Options struct {
	// Parallel is the worker pool size, minimum 1.
	Parallel int
	// Force re-transcribes files the library already has rows for.
	Force bool
	// WriteSidecar writes <name>_transcription.txt next to each audio file.
	WriteSidecar bool
	// ShowProgress renders an mpb progress bar for multi-file batches.
	ShowProgress bool
	// ProgressOut overrides the progress destination, default stderr.
	ProgressOut io.Writer
}

// FileResult is the outcome for one file in a batch.
type FileResult struct {
	Path         string
	TranscriptID int64
	Text         string
	Provider     string
	Skipped      bool
	Err          error
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Processed int
	Skipped   int
	Failed    int
	Results   []FileResult
}

type Pipeline struct {
	transcriber Transcriber
	db          repository.TranscriptDAO
	fs          afero.Fs
	log         *zap.Logger
}

func New(transcriber Transcriber, db repository.TranscriptDAO, fs afero.Fs, log *zap.Logger) *Pipeline {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		transcriber: transcriber,
		db:          db,
		fs:          fs,
		log:         log,
	}
}

// TranscriptSidecarPath maps an audio path to its transcript sidecar:
// files/lesson.mp3 -> files/lesson_transcription.txt
func TranscriptSidecarPath(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + "_transcription.txt"
}

// ListAudioFiles returns the audio files in dir, oldest first, so batch
// runs pick up where previous ones stopped.
func (p *Pipeline) ListAudioFiles(dir string) ([]string, error) {
	entries, err := afero.ReadDir(p.fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	audio := lo.Filter(entries, func(fi os.FileInfo, _ int) bool {
		if fi.IsDir() {
			return false
		}
		_, ok := provider.FormatFromPath(fi.Name())
		return ok
	})
	sort.SliceStable(audio, func(i, j int) bool {
		return audio[i].ModTime().Before(audio[j].ModTime())
	})

	return lo.Map(audio, func(fi os.FileInfo, _ int) string {
		return filepath.Join(dir, fi.Name())
	}), nil
}

// TranscribeDirectory transcribes up to limit unprocessed audio files in
// dir. A limit of 0 means no cap.
func (p *Pipeline) TranscribeDirectory(ctx context.Context, dir string, limit int, opts Options) (*BatchResult, error) {
	paths, err := p.ListAudioFiles(dir)
	if err != nil {
		return nil, err
	}

	if !opts.Force {
		paths = p.filterUnprocessed(ctx, paths, limit)
	} else if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}

	return p.TranscribeFiles(ctx, paths, opts)
}

// TranscribeFiles transcribes the given files through a bounded worker
// pool. Per-file failures are recorded and counted, not fatal.
func (p *Pipeline) TranscribeFiles(ctx context.Context, paths []string, opts Options) (*BatchResult, error) {
	if len(paths) == 0 {
		return &BatchResult{}, nil
	}

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}

	pm := NewProgressManager(ProgressConfig{
		Enabled: opts.ShowProgress && len(paths) > 1,
		Writer:  opts.ProgressOut,
	})
	bar := pm.CreateBar(len(paths), "Transcribing")
	defer pm.Wait()

	results := make([]FileResult, len(paths))
	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)

	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer bar.Increment()

			sem <- struct{}{}
			results[i] = p.transcribeOne(ctx, path, opts)
			<-sem
		}(i, path)
	}
	wg.Wait()
	bar.Complete()

	batch := &BatchResult{Results: results}
	for _, r := range results {
		switch {
		case r.Skipped:
			batch.Skipped++
		case r.Err != nil:
			batch.Failed++
		default:
			batch.Processed++
		}
	}
	return batch, nil
}

func (p *Pipeline) transcribeOne(ctx context.Context, path string, opts Options) FileResult {
	result := FileResult{Path: path}
	fileName := filepath.Base(path)

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	if !opts.Force && p.alreadyProcessed(ctx, fileName) {
		p.log.Info("already transcribed, skipping", zap.String("file", fileName))
		result.Skipped = true
		return result
	}

	resp, err := p.transcriber.TranscriptDetailed(path)
	if err != nil {
		p.log.Warn("transcription failed",
			zap.String("file", fileName),
			zap.Error(err))
		result.Err = err
		p.recordFailure(ctx, fileName, path, err)
		return result
	}

	hash, err := library.FileHash(p.fs, path)
	if err != nil {
		p.log.Debug("file hash unavailable", zap.String("file", fileName), zap.Error(err))
	}

	row := &model.Transcript{
		FileName:      fileName,
		FilePath:      path,
		FileHash:      hash,
		AudioDuration: resp.Duration.Seconds(),
		Provider:      resp.Provider,
		Language:      resp.Language,
		Model:         resp.ModelUsed,
		Text:          resp.Text,
	}
	id, err := p.db.Record(ctx, row)
	if err != nil {
		result.Err = errors.Wrap(err, "record transcript")
		return result
	}

	result.TranscriptID = id
	result.Text = resp.Text
	result.Provider = resp.Provider

	if opts.WriteSidecar {
		if err := p.writeSidecar(path, resp.Text); err != nil {
			p.log.Warn("failed to write transcript sidecar",
				zap.String("file", fileName),
				zap.Error(err))
		}
	}

	p.log.Info("transcribed file",
		zap.String("file", fileName),
		zap.String("provider", resp.Provider),
		zap.Int64("transcript_id", id))
	return result
}

func (p *Pipeline) alreadyProcessed(ctx context.Context, fileName string) bool {
	count, err := p.db.CheckIfFileProcessed(ctx, fileName)
	if err != nil {
		p.log.Warn("processed check failed, transcribing anyway",
			zap.String("file", fileName),
			zap.Error(err))
		return false
	}
	return count > 0
}

func (p *Pipeline) filterUnprocessed(ctx context.Context, paths []string, limit int) []string {
	keep := make([]string, 0, len(paths))
	for _, path := range paths {
		if p.alreadyProcessed(ctx, filepath.Base(path)) {
			continue
		}
		keep = append(keep, path)
		if limit > 0 && len(keep) >= limit {
			break
		}
	}
	return keep
}

func (p *Pipeline) recordFailure(ctx context.Context, fileName, path string, cause error) {
	_, err := p.db.Record(ctx, &model.Transcript{
		FileName:     fileName,
		FilePath:     path,
		HasError:     1,
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		p.log.Error("failed to record transcription error",
			zap.String("file", fileName),
			zap.Error(err))
	}
}

func (p *Pipeline) writeSidecar(audioPath, text string) error {
	path := TranscriptSidecarPath(audioPath)
	return afero.WriteFile(p.fs, path, []byte(text+"\n"), 0o644)
}
