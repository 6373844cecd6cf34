package server

import (
	"time"

	"mp3player/internal/app/model"
	"mp3player/internal/app/segment"
	"mp3player/internal/app/timeutil"
	"mp3player/internal/server/apierrors"
)

// TranscribeRequest asks the server to transcribe one library file.
type TranscribeRequest struct {
	FilePath string  `json:"file_path" binding:"required"`
	Provider string  `json:"provider,omitempty"`
	Language string  `json:"language,omitempty"`
	Prompt   string  `json:"prompt,omitempty"`
	Start    float64 `json:"start,omitempty" binding:"omitempty,min=0"`
	End      float64 `json:"end,omitempty" binding:"omitempty,min=0"`
}

// Validate applies rules binding tags cannot express.
func (r *TranscribeRequest) Validate() error {
	fields := make(map[string]string)
	if r.End != 0 && r.End <= r.Start {
		fields["end"] = "must be greater than start"
	}
	if len(fields) > 0 {
		return apierrors.NewValidation("invalid transcription request", fields)
	}
	return nil
}

// TranscriptQuery filters the transcript listing.
type TranscriptQuery struct {
	File  string `form:"file"`
	Q     string `form:"q"`
	Limit int    `form:"limit,default=50" binding:"min=1,max=500"`
}

// SemanticSearchRequest runs an embedding similarity search.
type SemanticSearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit,omitempty" binding:"omitempty,min=1,max=100"`
}

// TranscriptResponse is one transcript row as the API returns it.
type TranscriptResponse struct {
	ID            int       `json:"id"`
	FileName      string    `json:"file_name"`
	Provider      string    `json:"provider,omitempty"`
	Language      string    `json:"language,omitempty"`
	Text          string    `json:"text"`
	AudioDuration float64   `json:"audio_duration,omitempty"`
	SegmentStart  float64   `json:"segment_start,omitempty"`
	SegmentEnd    float64   `json:"segment_end,omitempty"`
	HasError      bool      `json:"has_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toTranscriptResponse(t model.Transcript) TranscriptResponse {
	return TranscriptResponse{
		ID:            t.ID,
		FileName:      t.FileName,
		Provider:      t.Provider,
		Language:      t.Language,
		Text:          t.Text,
		AudioDuration: t.AudioDuration,
		SegmentStart:  t.SegmentStart,
		SegmentEnd:    t.SegmentEnd,
		HasError:      t.HasError != 0,
		CreatedAt:     t.CreatedAt,
	}
}

// SegmentResponse is one practice segment of a file.
type SegmentResponse struct {
	Index   int     `json:"index"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Label   string  `json:"label"`
	Comment string  `json:"comment,omitempty"`
	Content string  `json:"content,omitempty"`
}

func toSegmentResponse(s segment.Segment) SegmentResponse {
	return SegmentResponse{
		Index:   s.Index,
		Start:   s.Start,
		End:     s.End,
		Label:   s.Label(),
		Comment: s.Comment,
		Content: s.Content,
	}
}

// ProviderResponse describes one registered transcription backend.
type ProviderResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Default     bool   `json:"default"`
	Healthy     bool   `json:"healthy"`
	Error       string `json:"error,omitempty"`
}

// StatsResponse aggregates the transcript library.
type StatsResponse struct {
	Transcripts  int     `json:"transcripts"`
	Files        int     `json:"files"`
	Errors       int     `json:"errors"`
	AudioSeconds float64 `json:"audio_seconds"`
	AudioTotal   string  `json:"audio_total"`
}

func toStatsResponse(s *model.TranscriptStats) StatsResponse {
	return StatsResponse{
		Transcripts:  s.Total,
		Files:        s.Files,
		Errors:       s.Errors,
		AudioSeconds: s.AudioSeconds,
		AudioTotal:   timeutil.FormatDuration(s.AudioSeconds),
	}
}

// TranscriptionCreated is the response to a successful POST
// /transcriptions.
type TranscriptionCreated struct {
	TranscriptID int64   `json:"transcript_id,omitempty"`
	Text         string  `json:"text"`
	Provider     string  `json:"provider"`
	Language     string  `json:"language,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
}

// SemanticMatch pairs a transcript with its similarity score.
type SemanticMatch struct {
	Transcript TranscriptResponse `json:"transcript"`
	Similarity float64            `json:"similarity"`
}
