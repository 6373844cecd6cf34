package provider

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"mp3player/internal/app/audio"
	"mp3player/internal/app/errors"
)

// DefaultTranscriptionTimeout bounds one transcription when the config
// does not set a global timeout.
const DefaultTranscriptionTimeout = 10 * time.Minute

// TranscriberAdapter narrows the orchestrator to the simple
// file-and-segment transcription interface the rest of the application
// uses.
type TranscriberAdapter struct {
	orchestrator TranscriptionOrchestrator
	timeout      time.Duration
	tempDir      string
	log          *zap.Logger
}

// NewTranscriberAdapter wraps an orchestrator. Zero timeout selects
// DefaultTranscriptionTimeout; empty tempDir selects the system temp
// directory for extracted segments.
func NewTranscriberAdapter(orchestrator TranscriptionOrchestrator, timeout time.Duration, tempDir string, log *zap.Logger) *TranscriberAdapter {
	if timeout <= 0 {
		timeout = DefaultTranscriptionTimeout
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TranscriberAdapter{
		orchestrator: orchestrator,
		timeout:      timeout,
		tempDir:      tempDir,
		log:          log,
	}
}

// Transcript transcribes a whole audio file.
func (a *TranscriberAdapter) Transcript(inputFilePath string) (string, error) {
	resp, err := a.TranscriptDetailed(inputFilePath)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// TranscriptDetailed transcribes a whole audio file and returns the full
// response, including which provider and model served it.
func (a *TranscriberAdapter) TranscriptDetailed(inputFilePath string) (*TranscriptionResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	request := &TranscriptionRequest{InputFilePath: inputFilePath}
	Runtime().Apply(request)

	return a.orchestrator.Transcribe(ctx, request)
}

// TranscriptSegment extracts the given time range to a temporary WAV
// file, transcribes it, and removes the intermediate file.
func (a *TranscriberAdapter) TranscriptSegment(inputFilePath string, startSec, endSec float64) (string, error) {
	if err := audio.ValidateSegmentTimes(startSec, endSec); err != nil {
		return "", err
	}
	if _, err := os.Stat(inputFilePath); err != nil {
		return "", errors.Wrapf(errors.ErrFileNotFound, "%s", inputFilePath)
	}

	segmentPath, err := audio.ExtractSegment(inputFilePath, startSec, endSec, a.tempDir)
	if err != nil {
		return "", errors.Wrap(err, "extract segment")
	}
	defer func() {
		if err := audio.CleanupSegment(segmentPath); err != nil {
			a.log.Warn("failed to remove extracted segment",
				zap.String("path", segmentPath),
				zap.Error(err))
		}
	}()

	a.log.Debug("transcribing segment",
		zap.String("source", inputFilePath),
		zap.Float64("start", startSec),
		zap.Float64("end", endSec),
		zap.String("segment", segmentPath))

	return a.Transcript(segmentPath)
}
