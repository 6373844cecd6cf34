package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.temporal.io/sdk/activity"

	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/model"
	"mp3player/internal/app/pipeline"
	"mp3player/internal/app/repository"
)

// Activities holds the worker-side dependencies. One instance is
// registered per worker.
type Activities struct {
	orchestrator provider.TranscriptionOrchestrator
	db           repository.TranscriptDAO
	fs           afero.Fs
}

// NewActivities wires the transcription stack and library into the
// worker. A nil fs selects the OS filesystem.
func NewActivities(orchestrator provider.TranscriptionOrchestrator, db repository.TranscriptDAO, fs afero.Fs) *Activities {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Activities{orchestrator: orchestrator, db: db, fs: fs}
}

// Transcribe runs one file through the provider fallback chain,
// heartbeating while the providers work.
func (a *Activities) Transcribe(ctx context.Context, req TranscribeRequest) (transcribeOutcome, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("starting transcription", "job_id", req.JobID, "file", req.FilePath)
	activity.RecordHeartbeat(ctx, fmt.Sprintf("processing %s", req.JobID))

	type answer struct {
		resp *provider.TranscriptionResponse
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		resp, err := a.orchestrator.Transcribe(ctx, &provider.TranscriptionRequest{
			InputFilePath: req.FilePath,
			Provider:      req.Provider,
			Language:      req.Language,
		})
		done <- answer{resp, err}
	}()

	heartbeat := time.NewTicker(10 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case result := <-done:
			if result.err != nil {
				logger.Error("transcription failed", "job_id", req.JobID, "error", result.err)
				return transcribeOutcome{}, result.err
			}
			return transcribeOutcome{
				Text:     result.resp.Text,
				Provider: result.resp.Provider,
				Language: result.resp.Language,
				Model:    result.resp.ModelUsed,
				Duration: result.resp.Duration.Seconds(),
			}, nil

		case <-heartbeat.C:
			activity.RecordHeartbeat(ctx, fmt.Sprintf("still processing %s", req.JobID))

		case <-ctx.Done():
			return transcribeOutcome{}, ctx.Err()
		}
	}
}

// Persist records the transcript in the library and writes the
// sidecar next to the audio file.
func (a *Activities) Persist(ctx context.Context, in persistInput) (persistOutcome, error) {
	logger := activity.GetLogger(ctx)

	id, err := a.db.Record(ctx, &model.Transcript{
		FileName:      filepath.Base(in.FilePath),
		FilePath:      in.FilePath,
		AudioDuration: in.Outcome.Duration,
		Provider:      in.Outcome.Provider,
		Language:      in.Outcome.Language,
		Model:         in.Outcome.Model,
		Text:          in.Outcome.Text,
	})
	if err != nil {
		return persistOutcome{}, errors.Wrap(err, "record transcript")
	}

	sidecar := pipeline.TranscriptSidecarPath(in.FilePath)
	if err := afero.WriteFile(a.fs, sidecar, []byte(in.Outcome.Text+"\n"), 0o644); err != nil {
		return persistOutcome{}, errors.Wrapf(err, "write sidecar %s", sidecar)
	}

	logger.Info("persisted transcript", "transcript_id", id, "sidecar", sidecar)
	return persistOutcome{TranscriptID: id, SidecarPath: sidecar}, nil
}
