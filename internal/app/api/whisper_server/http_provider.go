package whisper_server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mp3player/internal/app/api/provider"
)

// Config holds settings for a self-hosted whisper.cpp server
// (the `server` binary from the whisper.cpp repo).
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string `yaml:"base_url"`

	// ResponseFormat is json, verbose_json, text, srt, or vtt.
	ResponseFormat string `yaml:"response_format"`

	Language    string  `yaml:"language"`
	Prompt      string  `yaml:"prompt"`
	Temperature float64 `yaml:"temperature"`

	// TimeoutSec bounds one inference request.
	TimeoutSec int `yaml:"timeout_sec"`

	// AuthToken is sent as a bearer token when set.
	AuthToken string `yaml:"auth_token"`
}

// inferenceResponse is the server's JSON response shape.
type inferenceResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Error string `json:"error"`
}

// Provider talks to a whisper.cpp server over HTTP.
type Provider struct {
	config Config
	client *http.Client
	log    *zap.Logger
}

// NewProvider creates a whisper server provider.
func NewProvider(config Config, log *zap.Logger) *Provider {
	if config.ResponseFormat == "" {
		config.ResponseFormat = "json"
	}
	if config.TimeoutSec <= 0 {
		config.TimeoutSec = 300
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		config: config,
		client: &http.Client{Timeout: time.Duration(config.TimeoutSec) * time.Second},
		log:    log,
	}
}

// Transcript converts an audio file to text with the configured
// defaults.
func (p *Provider) Transcript(inputFilePath string) (string, error) {
	resp, err := p.TranscriptWithOptions(context.Background(), &provider.TranscriptionRequest{
		InputFilePath: inputFilePath,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// TranscriptWithOptions uploads the file to the server's /inference
// endpoint and parses the response.
func (p *Provider) TranscriptWithOptions(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	if request.InputFilePath == "" {
		return nil, &provider.TranscriptionError{
			Code:      "invalid_input",
			Message:   "input file path is required",
			Provider:  "whisper_server",
			Retryable: false,
		}
	}

	file, err := os.Open(request.InputFilePath)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:      "file_not_found",
			Message:   "cannot open input file: " + err.Error(),
			Provider:  "whisper_server",
			Retryable: false,
		}
	}
	defer file.Close()

	format := p.config.ResponseFormat
	if request.ResponseFormat != "" {
		format = request.ResponseFormat
	}

	body, contentType, err := p.buildForm(file, filepath.Base(request.InputFilePath), request, format)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:      "request_build_failed",
			Message:   err.Error(),
			Provider:  "whisper_server",
			Retryable: false,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/inference", body)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:      "request_build_failed",
			Message:   err.Error(),
			Provider:  "whisper_server",
			Retryable: false,
		}
	}
	httpReq.Header.Set("Content-Type", contentType)
	if p.config.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.config.AuthToken)
	}

	start := time.Now()
	p.log.Debug("posting inference request",
		zap.String("url", httpReq.URL.String()),
		zap.String("file", request.InputFilePath),
		zap.String("response_format", format))

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &provider.TranscriptionError{
				Code:      "timeout",
				Message:   "inference request cancelled or timed out",
				Provider:  "whisper_server",
				Retryable: true,
			}
		}
		return nil, &provider.TranscriptionError{
			Code:        "connection_failed",
			Message:     "cannot reach whisper server: " + err.Error(),
			Provider:    "whisper_server",
			Retryable:   true,
			Suggestions: []string{"check that the server is running at " + p.config.BaseURL},
		}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:      "response_read_failed",
			Message:   err.Error(),
			Provider:  "whisper_server",
			Retryable: true,
		}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &provider.TranscriptionError{
			Code:      "server_error",
			Message:   "server returned " + httpResp.Status + ": " + strings.TrimSpace(string(raw)),
			Provider:  "whisper_server",
			Retryable: httpResp.StatusCode >= 500,
		}
	}

	resp, err := parseResponse(raw, format)
	if err != nil {
		return nil, &provider.TranscriptionError{
			Code:      "response_parse_failed",
			Message:   err.Error(),
			Provider:  "whisper_server",
			Retryable: false,
		}
	}
	resp.ProcessingTime = time.Since(start)
	resp.ModelUsed = "whisper_server"
	return resp, nil
}

// buildForm assembles the multipart body the whisper.cpp server
// expects.
func (p *Provider) buildForm(file io.Reader, filename string, request *provider.TranscriptionRequest, format string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"response_format": format,
		"temperature":     strconv.FormatFloat(p.temperature(request), 'f', 2, 64),
	}
	if lang := p.language(request); lang != "" {
		fields["language"] = lang
	}
	if prompt := p.prompt(request); prompt != "" {
		fields["prompt"] = prompt
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
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

func (p *Provider) temperature(request *provider.TranscriptionRequest) float64 {
	if request.Temperature > 0 {
		return request.Temperature
	}
	return p.config.Temperature
}

// parseResponse interprets the body according to the response format.
func parseResponse(raw []byte, format string) (*provider.TranscriptionResponse, error) {
	switch format {
	case "json", "verbose_json":
		var ir inferenceResponse
		if err := json.Unmarshal(raw, &ir); err != nil {
			return nil, err
		}
		resp := &provider.TranscriptionResponse{
			Text:     strings.TrimSpace(ir.Text),
			Language: ir.Language,
		}
		for _, s := range ir.Segments {
			resp.Segments = append(resp.Segments, provider.TranscriptionSegment{
				ID:    s.ID,
				Start: s.Start,
				End:   s.End,
				Text:  strings.TrimSpace(s.Text),
			})
		}
		if n := len(resp.Segments); n > 0 {
			resp.Duration = time.Duration(resp.Segments[n-1].End * float64(time.Second))
		}
		return resp, nil
	case "srt", "vtt":
		return &provider.TranscriptionResponse{Text: extractSubtitleText(string(raw))}, nil
	default:
		return &provider.TranscriptionResponse{Text: strings.TrimSpace(string(raw))}, nil
	}
}

// extractSubtitleText strips srt/vtt cue numbers and timestamps,
// keeping only the spoken lines.
func extractSubtitleText(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "WEBVTT" {
			continue
		}
		if strings.Contains(line, "-->") {
			continue
		}
		if _, err := strconv.Atoi(line); err == nil {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

// GetProviderInfo describes the whisper server backend.
func (p *Provider) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        "whisper_server",
		DisplayName: "Whisper Server (HTTP API)",
		Type:        provider.ProviderTypeHybrid,
		Version:     "1.0.0",
		SupportedFormats: []provider.AudioFormat{
			provider.FormatWAV,
			provider.FormatMP3,
			provider.FormatM4A,
			provider.FormatFLAC,
			provider.FormatOGG,
			provider.FormatWEBM,
		},
		MaxFileSizeMB:      100,
		SupportsTimestamps: true,
		RequiresInternet:   true,
		DefaultModel:       "base",
	}
}

// ValidateConfiguration checks settings without contacting the server.
func (p *Provider) ValidateConfiguration() error {
	if p.config.BaseURL == "" {
		return &provider.TranscriptionError{
			Code:     "invalid_config",
			Message:  "base_url is required",
			Provider: "whisper_server",
		}
	}
	if !strings.HasPrefix(p.config.BaseURL, "http://") && !strings.HasPrefix(p.config.BaseURL, "https://") {
		return &provider.TranscriptionError{
			Code:     "invalid_config",
			Message:  "base_url must start with http:// or https://",
			Provider: "whisper_server",
		}
	}
	switch p.config.ResponseFormat {
	case "json", "verbose_json", "text", "srt", "vtt":
	default:
		return &provider.TranscriptionError{
			Code:     "invalid_config",
			Message:  "response_format must be one of json, verbose_json, text, srt, vtt",
			Provider: "whisper_server",
		}
	}
	if p.config.Temperature < 0 || p.config.Temperature > 1 {
		return &provider.TranscriptionError{
			Code:     "invalid_config",
			Message:  "temperature must be between 0.0 and 1.0",
			Provider: "whisper_server",
		}
	}
	return nil
}

// HealthCheck probes the server root. A 503 is treated as healthy
// because the server answers that while a model is still loading.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := p.ValidateConfiguration(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return &provider.TranscriptionError{
			Code:      "health_check_failed",
			Message:   "cannot reach whisper server: " + err.Error(),
			Provider:  "whisper_server",
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 && resp.StatusCode != http.StatusServiceUnavailable {
		return &provider.TranscriptionError{
			Code:     "health_check_failed",
			Message:  "server returned " + resp.Status,
			Provider: "whisper_server",
		}
	}
	return nil
}
