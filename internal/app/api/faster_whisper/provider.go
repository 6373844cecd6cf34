package faster_whisper

import (
	"context"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/audio"
)

// Provider adapts Transcriber to the TranscriptionProvider interface.
type Provider struct {
	*Transcriber
}

// NewProvider creates a faster-whisper provider.
func NewProvider(config Config, log *zap.Logger) *Provider {
	return &Provider{Transcriber: NewTranscriber(config, log)}
}

// TranscriptWithOptions runs the CLI with per-request overrides and
// fills in audio duration for metrics when ffprobe can report it.
func (p *Provider) TranscriptWithOptions(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	if request.InputFilePath == "" {
		return nil, &provider.TranscriptionError{
			Code:      "invalid_input",
			Message:   "input file path is required",
			Provider:  "faster_whisper",
			Retryable: false,
		}
	}
	if _, err := os.Stat(request.InputFilePath); os.IsNotExist(err) {
		return nil, &provider.TranscriptionError{
			Code:      "file_not_found",
			Message:   "input file not found: " + request.InputFilePath,
			Provider:  "faster_whisper",
			Retryable: false,
		}
	}

	start := time.Now()
	text, err := p.TranscriptContext(ctx, request.InputFilePath, request.Language, request.Model)
	if err != nil {
		return nil, p.classify(err)
	}

	resp := &provider.TranscriptionResponse{
		Text:           text,
		Language:       p.language(request),
		ProcessingTime: time.Since(start),
		ModelUsed:      p.model(request),
	}
	if seconds, err := audio.Duration(request.InputFilePath); err == nil {
		resp.Duration = time.Duration(seconds * float64(time.Second))
	}
	return resp, nil
}

func (p *Provider) language(request *provider.TranscriptionRequest) string {
	if request.Language != "" {
		return request.Language
	}
	return p.config.Language
}

func (p *Provider) model(request *provider.TranscriptionRequest) string {
	if request.Model != "" {
		return request.Model
	}
	if p.config.ModelDir != "" {
		return p.config.ModelDir
	}
	return p.config.Model
}

func (p *Provider) classify(err error) error {
	switch {
	case isBinaryMissing(err):
		return &provider.TranscriptionError{
			Code:      "binary_missing",
			Message:   err.Error(),
			Provider:  "faster_whisper",
			Retryable: false,
			Suggestions: []string{
				"pip install whisper-ctranslate2",
				"set providers.faster_whisper.settings.binary_path to the executable",
			},
		}
	case isGPUFailure(err.Error()):
		return &provider.TranscriptionError{
			Code:      "gpu_error",
			Message:   err.Error(),
			Provider:  "faster_whisper",
			Retryable: false,
			Suggestions: []string{
				"set providers.faster_whisper.settings.device to cpu",
			},
		}
	default:
		return &provider.TranscriptionError{
			Code:      "transcription_failed",
			Message:   err.Error(),
			Provider:  "faster_whisper",
			Retryable: true,
		}
	}
}

// GetProviderInfo describes the faster-whisper CLI backend.
func (p *Provider) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        "faster_whisper",
		DisplayName: "Faster-Whisper (CTranslate2)",
		Type:        provider.ProviderTypeLocal,
		Version:     "1.0.0",
		SupportedFormats: []provider.AudioFormat{
			provider.FormatWAV,
			provider.FormatMP3,
			provider.FormatM4A,
			provider.FormatFLAC,
			provider.FormatOGG,
		},
		SupportsTimestamps:        true,
		SupportsLanguageDetection: true,
		RequiresBinary:            true,
		DefaultModel:              DefaultModel,
		AvailableModels:           []string{"tiny", "base", "small", "medium", "large-v3"},
	}
}

// ValidateConfiguration checks settings without running the model.
func (p *Provider) ValidateConfiguration() error {
	switch p.config.Device {
	case "auto", "cuda", "cpu":
	default:
		return &provider.TranscriptionError{
			Code:     "invalid_config",
			Message:  "device must be auto, cuda, or cpu",
			Provider: "faster_whisper",
		}
	}
	if p.config.ComputeType != "" {
		valid := false
		for _, ct := range computeTypeLadder {
			if p.config.ComputeType == ct {
				valid = true
				break
			}
		}
		if !valid {
			return &provider.TranscriptionError{
				Code:     "invalid_config",
				Message:  "compute_type must be one of int8, int8_float16, float16, float32",
				Provider: "faster_whisper",
			}
		}
	}
	if p.config.BeamSize <= 0 {
		return &provider.TranscriptionError{
			Code:     "invalid_config",
			Message:  "beam_size must be positive",
			Provider: "faster_whisper",
		}
	}
	if _, err := exec.LookPath(p.config.BinaryPath); err != nil {
		return &provider.TranscriptionError{
			Code:     "binary_missing",
			Message:  p.config.BinaryPath + " not found in PATH",
			Provider: "faster_whisper",
			Suggestions: []string{
				"pip install whisper-ctranslate2",
			},
		}
	}
	return nil
}

// HealthCheck verifies the CLI starts at all.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := p.ValidateConfiguration(); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, p.config.BinaryPath, "--version")
	if err := cmd.Run(); err != nil {
		return &provider.TranscriptionError{
			Code:     "health_check_failed",
			Message:  "whisper-ctranslate2 --version failed: " + err.Error(),
			Provider: "faster_whisper",
		}
	}
	return nil
}
