package whisper

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"mp3player/internal/app/api/provider"
	client "mp3player/internal/app/api/openai"
)

// Config holds OpenAI Whisper provider settings.
type Config struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Language    string  `yaml:"language"`
	Prompt      string  `yaml:"prompt"`
	Temperature float32 `yaml:"temperature"`
}

// Provider adapts RemoteTranscriber to the TranscriptionProvider
// interface.
type Provider struct {
	*RemoteTranscriber
	config Config
}

// NewProvider creates an OpenAI Whisper provider.
func NewProvider(config Config) *Provider {
	if config.Model == "" {
		config.Model = string(openai.Whisper1)
	}
	return &Provider{
		RemoteTranscriber: NewRemoteTranscriber(client.NewClient(config.APIKey, config.BaseURL)),
		config:            config,
	}
}

// TranscriptWithOptions calls the API with per-request overrides.
func (p *Provider) TranscriptWithOptions(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	if request.InputFilePath == "" {
		return nil, &provider.TranscriptionError{
			Code:      "invalid_input",
			Message:   "input file path is required",
			Provider:  "openai",
			Retryable: false,
		}
	}
	if _, err := os.Stat(request.InputFilePath); os.IsNotExist(err) {
		return nil, &provider.TranscriptionError{
			Code:      "file_not_found",
			Message:   "input file not found: " + request.InputFilePath,
			Provider:  "openai",
			Retryable: false,
		}
	}

	req := openai.AudioRequest{
		Model:       p.model(request),
		FilePath:    request.InputFilePath,
		Language:    p.language(request),
		Prompt:      p.prompt(request),
		Temperature: p.temperature(request),
	}

	start := time.Now()
	resp, err := p.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, p.classifyAPIError(err)
	}

	return &provider.TranscriptionResponse{
		Text:           resp.Text,
		Language:       resp.Language,
		Duration:       time.Duration(resp.Duration * float64(time.Second)),
		ProcessingTime: time.Since(start),
		ModelUsed:      req.Model,
	}, nil
}

func (p *Provider) model(request *provider.TranscriptionRequest) string {
	if request.Model != "" {
		return request.Model
	}
	return p.config.Model
}

func (p *Provider) language(request *provider.TranscriptionRequest) string {
	if request.Language != "" {
		return request.Language
	}
	return p.config.Language
}

func (p *Provider) prompt(request *provider.TranscriptionRequest) string {
	if request.Prompt != "" {
		return request.Prompt
	}
	return p.config.Prompt
}

func (p *Provider) temperature(request *provider.TranscriptionRequest) float32 {
	if request.Temperature > 0 {
		return float32(request.Temperature)
	}
	return p.config.Temperature
}

// classifyAPIError maps API failures onto structured provider errors
// so the orchestrator can tell quota blips from broken configuration.
func (p *Provider) classifyAPIError(err error) error {
	if apiErr, ok := err.(*openai.APIError); ok {
		switch apiErr.HTTPStatusCode {
		case 401:
			return &provider.TranscriptionError{
				Code:        "authentication_failed",
				Message:     "OpenAI API key is invalid or missing",
				Provider:    "openai",
				Retryable:   false,
				Suggestions: []string{"check the OPENAI_API_KEY environment variable"},
			}
		case 429:
			return &provider.TranscriptionError{
				Code:        "rate_limit_exceeded",
				Message:     "OpenAI API rate limit exceeded",
				Provider:    "openai",
				Retryable:   true,
				Suggestions: []string{"wait and retry", "check your OpenAI usage limits"},
			}
		case 413:
			return &provider.TranscriptionError{
				Code:        "file_too_large",
				Message:     "audio file exceeds the OpenAI 25MB limit",
				Provider:    "openai",
				Retryable:   false,
				Suggestions: []string{"transcribe shorter segments instead of the whole file"},
			}
		case 400:
			return &provider.TranscriptionError{
				Code:      "invalid_file",
				Message:   "invalid or unsupported audio file",
				Provider:  "openai",
				Retryable: false,
			}
		default:
			return &provider.TranscriptionError{
				Code:      "api_error",
				Message:   "OpenAI API error: " + apiErr.Message,
				Provider:  "openai",
				Retryable: true,
			}
		}
	}
	return &provider.TranscriptionError{
		Code:      "request_failed",
		Message:   err.Error(),
		Provider:  "openai",
		Retryable: true,
	}
}

// GetProviderInfo describes the OpenAI Whisper API backend.
func (p *Provider) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        "openai",
		DisplayName: "OpenAI Whisper API",
		Type:        provider.ProviderTypeRemote,
		Version:     "1.0.0",
		SupportedFormats: []provider.AudioFormat{
			provider.FormatMP3,
			provider.FormatM4A,
			provider.FormatWAV,
			provider.FormatWEBM,
		},
		MaxFileSizeMB:             25,
		SupportsTimestamps:        true,
		SupportsWordLevel:         true,
		SupportsLanguageDetection: true,
		RequiresInternet:          true,
		RequiresAPIKey:            true,
		DefaultModel:              string(openai.Whisper1),
		AvailableModels:           []string{string(openai.Whisper1)},
	}
}

// ValidateConfiguration checks credentials without calling the API.
func (p *Provider) ValidateConfiguration() error {
	if p.config.APIKey == "" {
		return &provider.TranscriptionError{
			Code:     "missing_api_key",
			Message:  "OpenAI API key is required",
			Provider: "openai",
		}
	}
	if !strings.HasPrefix(p.config.APIKey, "sk-") {
		return &provider.TranscriptionError{
			Code:     "invalid_api_key",
			Message:  "OpenAI API keys start with sk-",
			Provider: "openai",
		}
	}
	if p.config.Temperature < 0 || p.config.Temperature > 1 {
		return &provider.TranscriptionError{
			Code:     "invalid_config",
			Message:  "temperature must be between 0.0 and 1.0",
			Provider: "openai",
		}
	}
	return nil
}

// HealthCheck lists models as a lightweight connectivity probe.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := p.ValidateConfiguration(); err != nil {
		return err
	}
	if _, err := p.client.ListModels(ctx); err != nil {
		return &provider.TranscriptionError{
			Code:     "health_check_failed",
			Message:  "OpenAI API unreachable: " + err.Error(),
			Provider: "openai",
		}
	}
	return nil
}
