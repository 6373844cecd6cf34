package provider

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// AudioFormat identifies an audio container/codec family by extension.
type AudioFormat string

const (
	FormatWAV  AudioFormat = "wav"
	FormatMP3  AudioFormat = "mp3"
	FormatM4A  AudioFormat = "m4a"
	FormatFLAC AudioFormat = "flac"
	FormatOGG  AudioFormat = "ogg"
	FormatWEBM AudioFormat = "webm"
)

// FormatFromPath derives the audio format from a file name. The second
// return value reports whether the extension maps to a known format.
func FormatFromPath(path string) (AudioFormat, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch AudioFormat(ext) {
	case FormatWAV, FormatMP3, FormatM4A, FormatFLAC, FormatOGG, FormatWEBM:
		return AudioFormat(ext), true
	}
	return "", false
}

// ProviderType classifies where transcription work happens.
type ProviderType string

const (
	// ProviderTypeLocal runs entirely on this machine.
	ProviderTypeLocal ProviderType = "local"
	// ProviderTypeRemote calls a hosted API.
	ProviderTypeRemote ProviderType = "remote"
	// ProviderTypeHybrid talks to a self-hosted service over the network.
	ProviderTypeHybrid ProviderType = "hybrid"
)

// TranscriptionRequest carries one transcription job and its
// per-request overrides. Zero values fall back to provider defaults.
type TranscriptionRequest struct {
	// InputFilePath is the audio file to transcribe.
	InputFilePath string

	// Provider pins the request to a named provider, bypassing the
	// fallback chain. Empty means use the configured chain.
	Provider string

	// Language is an ISO 639-1 hint, e.g. "en". Empty means
	// auto-detect or provider default.
	Language string

	// Model overrides the provider's configured model.
	Model string

	// Prompt biases decoding toward the given vocabulary or style.
	Prompt string

	// Temperature is the sampling temperature in [0, 1].
	Temperature float64

	// ResponseFormat requests a specific output shape from providers
	// that support more than plain text.
	ResponseFormat string
}

// TranscriptionSegment is one timed span of recognized speech.
type TranscriptionSegment struct {
	ID         int
	Start      float64
	End        float64
	Text       string
	Confidence float64
}

// TranscriptionResponse is the result of one transcription.
type TranscriptionResponse struct {
	// Text is the full transcript.
	Text string

	// Provider names the provider that served the request. The
	// orchestrator stamps it, so callers see who actually answered
	// after fallback.
	Provider string

	// Language is the detected or requested language code.
	Language string

	// Duration is the length of the transcribed audio, when the
	// provider reports it.
	Duration time.Duration

	// Segments holds timed spans for providers that return them.
	Segments []TranscriptionSegment

	// ProcessingTime is wall-clock time spent transcribing.
	ProcessingTime time.Duration

	// ModelUsed names the model that produced the transcript.
	ModelUsed string

	// ProviderMetadata carries provider-specific extras.
	ProviderMetadata map[string]interface{}
}

// TranscriptionError is a structured provider failure. Retryable
// failures may be reattempted by the orchestrator; others abort the
// current provider immediately.
type TranscriptionError struct {
	Code        string
	Message     string
	Provider    string
	Retryable   bool
	Suggestions []string
}

func (e *TranscriptionError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// ProviderInfo describes a provider's capabilities and requirements.
type ProviderInfo struct {
	Name        string
	DisplayName string
	Type        ProviderType
	Version     string

	SupportedFormats   []AudioFormat
	SupportedLanguages []string

	// MaxFileSizeMB is the largest accepted input, 0 for no limit.
	MaxFileSizeMB int
	// MaxDurationSec is the longest accepted input, 0 for no limit.
	MaxDurationSec int

	SupportsTimestamps        bool
	SupportsWordLevel         bool
	SupportsLanguageDetection bool

	RequiresInternet bool
	RequiresAPIKey   bool
	RequiresBinary   bool

	DefaultModel    string
	AvailableModels []string
}

// SupportsFormat reports whether the provider accepts the given format.
func (pi ProviderInfo) SupportsFormat(format AudioFormat) bool {
	for _, f := range pi.SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// ProviderStats aggregates observed behavior of one provider.
type ProviderStats struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	SuccessRate        float64

	// AverageLatencyMs is an exponentially weighted moving average.
	AverageLatencyMs float64

	// TotalAudioProcessed is seconds of audio successfully transcribed.
	TotalAudioProcessed float64

	// ErrorBreakdown counts failures by error code.
	ErrorBreakdown map[string]int64

	LastUsed time.Time
}

// OverallStats aggregates metrics across all providers.
type OverallStats struct {
	TotalProviders     int
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	OverallSuccessRate float64
	TotalAudioSeconds  float64
}
