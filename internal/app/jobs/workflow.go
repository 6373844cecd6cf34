package jobs

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Activity names, shared by the workflow and worker registration.
const (
	ActivityTranscribe = "Transcribe"
	ActivityPersist    = "Persist"
)

// TranscribeFileWorkflow transcribes one file and persists the result
// to the library plus a transcript sidecar next to the audio.
func TranscribeFileWorkflow(ctx workflow.Context, req TranscribeRequest) (TranscribeResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting transcription workflow", "job_id", req.JobID, "file", req.FilePath)

	startTime := workflow.Now(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    100 * time.Second,
			MaximumAttempts:    3,
		},
	})

	var outcome transcribeOutcome
	if err := workflow.ExecuteActivity(ctx, ActivityTranscribe, req).Get(ctx, &outcome); err != nil {
		logger.Error("transcription activity failed", "job_id", req.JobID, "error", err)
		return TranscribeResult{JobID: req.JobID}, err
	}

	var persisted persistOutcome
	err := workflow.ExecuteActivity(ctx, ActivityPersist, persistInput{
		FilePath: req.FilePath,
		Outcome:  outcome,
	}).Get(ctx, &persisted)
	if err != nil {
		logger.Error("persist activity failed", "job_id", req.JobID, "error", err)
		return TranscribeResult{JobID: req.JobID}, err
	}

	result := TranscribeResult{
		JobID:          req.JobID,
		Text:           outcome.Text,
		Provider:       outcome.Provider,
		TranscriptID:   persisted.TranscriptID,
		SidecarPath:    persisted.SidecarPath,
		ProcessingTime: workflow.Now(ctx).Sub(startTime),
	}

	logger.Info("transcription workflow completed",
		"job_id", req.JobID,
		"provider", result.Provider,
		"transcript_id", result.TranscriptID)
	return result, nil
}
