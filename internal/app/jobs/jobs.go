// Package jobs runs transcription through Temporal so large batches
// survive worker restarts. The whole surface is disabled unless
// TEMPORAL_HOST is set.
package jobs

import "time"

// TranscribeRequest is one file submitted to the workflow.
type TranscribeRequest struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
	Provider string `json:"provider,omitempty"`
	Language string `json:"language,omitempty"`
}

// TranscribeResult is the workflow outcome.
type TranscribeResult struct {
	JobID          string        `json:"job_id"`
	Text           string        `json:"text"`
	Provider       string        `json:"provider"`
	TranscriptID   int64         `json:"transcript_id"`
	SidecarPath    string        `json:"sidecar_path"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// transcribeOutcome is the transcription activity's output, consumed
// by the persist activity.
type transcribeOutcome struct {
	Text     string  `json:"text"`
	Provider string  `json:"provider"`
	Language string  `json:"language"`
	Model    string  `json:"model"`
	Duration float64 `json:"duration_seconds"`
}

// persistInput carries the transcription into the persist activity.
type persistInput struct {
	FilePath string            `json:"file_path"`
	Outcome  transcribeOutcome `json:"outcome"`
}

// persistOutcome reports where the transcript landed.
type persistOutcome struct {
	TranscriptID int64  `json:"transcript_id"`
	SidecarPath  string `json:"sidecar_path"`
}
