package whisper_server

import (
	"go.uber.org/zap"

	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/errors"
)

func init() {
	provider.RegisterProvider("whisper_server", createProvider)
}

func createProvider(settings map[string]interface{}) (provider.TranscriptionProvider, error) {
	baseURL, _ := settings["base_url"].(string)
	if baseURL == "" {
		return nil, errors.RequiredField("base_url")
	}

	config := Config{BaseURL: baseURL}

	if v, ok := settings["response_format"].(string); ok {
		config.ResponseFormat = v
	}
	if v, ok := settings["language"].(string); ok {
		config.Language = v
	}
	if v, ok := settings["prompt"].(string); ok {
		config.Prompt = v
	}
	if v, ok := settings["temperature"].(float64); ok {
		config.Temperature = v
	}
	if v, ok := settings["auth_token"].(string); ok {
		config.AuthToken = v
	}
	switch v := settings["timeout_sec"].(type) {
	case int:
		config.TimeoutSec = v
	case float64:
		config.TimeoutSec = int(v)
	}

	var log *zap.Logger
	if l, ok := settings["logger"].(*zap.Logger); ok {
		log = l
	}

	return NewProvider(config, log), nil
}
