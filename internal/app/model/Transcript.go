package model

import "time"

// Transcript is one library row: a whole-file transcription or a single
// segment of it. Whole-file rows have SegmentStart == SegmentEnd == 0.
type Transcript struct {
	ID            int        `json:"id"`
	FileName      string     `json:"file_name"`
	FilePath      string     `json:"file_path"`
	FileHash      string     `json:"file_hash,omitempty"`
	AudioDuration float64    `json:"audio_duration"`
	SegmentStart  float64    `json:"segment_start"`
	SegmentEnd    float64    `json:"segment_end"`
	Provider      string     `json:"provider,omitempty"`
	Language      string     `json:"language,omitempty"`
	Model         string     `json:"model,omitempty"`
	Text          string     `json:"text"`
	CreatedAt     time.Time  `json:"created_at"`
	HasError      int        `json:"has_error"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// IsSegment reports whether the row covers a time range rather than the
// whole file.
func (t *Transcript) IsSegment() bool {
	return t.SegmentEnd > t.SegmentStart
}

// TranscriptStats aggregates library counters for the stats command and API.
type TranscriptStats struct {
	Total        int     `json:"total"`
	Files        int     `json:"files"`
	Errors       int     `json:"errors"`
	AudioSeconds float64 `json:"audio_seconds"`
}
