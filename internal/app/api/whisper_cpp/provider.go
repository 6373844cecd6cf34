package whisper_cpp

import (
	"context"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/audio"
	"mp3player/internal/app/errors"
)

// Config holds whisper.cpp provider settings.
type Config struct {
	BinaryPath string `yaml:"binary_path"`
	ModelPath  string `yaml:"model_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	TempDir    string `yaml:"temp_dir"`
}

// Provider adapts LocalTranscriber to the TranscriptionProvider
// interface.
type Provider struct {
	*LocalTranscriber
	config Config
}

// NewProvider creates a whisper.cpp provider.
func NewProvider(config Config, log *zap.Logger) *Provider {
	lt := NewLocalTranscriber(config.BinaryPath, config.ModelPath, log)
	if config.Language != "" {
		lt.language = config.Language
	}
	if config.Prompt != "" {
		lt.prompt = config.Prompt
	}
	if config.TempDir != "" {
		lt.tempDir = config.TempDir
	}
	return &Provider{LocalTranscriber: lt, config: config}
}

// TranscriptWithOptions runs the binary with per-request overrides.
func (p *Provider) TranscriptWithOptions(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	if request.InputFilePath == "" {
		return nil, &provider.TranscriptionError{
			Code:      "invalid_input",
			Message:   "input file path is required",
			Provider:  "whisper_cpp",
			Retryable: false,
		}
	}
	if _, err := os.Stat(request.InputFilePath); os.IsNotExist(err) {
		return nil, &provider.TranscriptionError{
			Code:      "file_not_found",
			Message:   "input file not found: " + request.InputFilePath,
			Provider:  "whisper_cpp",
			Retryable: false,
		}
	}

	start := time.Now()
	text, err := p.TranscriptContext(ctx, request.InputFilePath, request.Language, request.Prompt)
	if err != nil {
		code := "transcription_failed"
		retryable := true
		if errors.Is(err, errors.ErrProviderTimeout) {
			code = "timeout"
		}
		if errors.Is(err, errors.ErrFileNotFound) {
			code, retryable = "file_not_found", false
		}
		return nil, &provider.TranscriptionError{
			Code:      code,
			Message:   err.Error(),
			Provider:  "whisper_cpp",
			Retryable: retryable,
		}
	}

	resp := &provider.TranscriptionResponse{
		Text:           text,
		Language:       request.Language,
		ProcessingTime: time.Since(start),
		ModelUsed:      p.config.ModelPath,
	}
	if seconds, err := audio.Duration(request.InputFilePath); err == nil {
		resp.Duration = time.Duration(seconds * float64(time.Second))
	}
	return resp, nil
}

// GetProviderInfo describes the whisper.cpp backend.
func (p *Provider) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        "whisper_cpp",
		DisplayName: "Whisper.cpp (local binary)",
		Type:        provider.ProviderTypeLocal,
		Version:     "1.0.0",
		SupportedFormats: []provider.AudioFormat{
			provider.FormatWAV,
			provider.FormatMP3,
			provider.FormatM4A,
		},
		SupportsTimestamps: true,
		RequiresBinary:     true,
		DefaultModel:       "ggml-medium.bin",
	}
}

// ValidateConfiguration checks binary and model presence.
func (p *Provider) ValidateConfiguration() error {
	if p.config.BinaryPath == "" {
		return &provider.TranscriptionError{
			Code:     "invalid_config",
			Message:  "binary_path is required",
			Provider: "whisper_cpp",
		}
	}
	if p.config.ModelPath == "" {
		return &provider.TranscriptionError{
			Code:     "invalid_config",
			Message:  "model_path is required",
			Provider: "whisper_cpp",
		}
	}
	if _, err := exec.LookPath(p.config.BinaryPath); err != nil {
		if _, statErr := os.Stat(p.config.BinaryPath); statErr != nil {
			return &provider.TranscriptionError{
				Code:     "binary_missing",
				Message:  "whisper.cpp binary not found: " + p.config.BinaryPath,
				Provider: "whisper_cpp",
				Suggestions: []string{
					"build whisper.cpp and set providers.whisper_cpp.settings.binary_path",
				},
			}
		}
	}
	if _, err := os.Stat(p.config.ModelPath); err != nil {
		return &provider.TranscriptionError{
			Code:     "model_missing",
			Message:  "ggml model not found: " + p.config.ModelPath,
			Provider: "whisper_cpp",
			Suggestions: []string{
				"download a ggml model and set providers.whisper_cpp.settings.model_path",
			},
		}
	}
	return nil
}

// HealthCheck verifies the provider can run.
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.ValidateConfiguration()
}
