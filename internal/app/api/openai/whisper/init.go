package whisper

import (
	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/errors"
)

func init() {
	provider.RegisterProvider("openai", createProvider)
}

func createProvider(settings map[string]interface{}) (provider.TranscriptionProvider, error) {
	apiKey, _ := settings["api_key"].(string)
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrMissingAPIKey, "openai provider requires api_key in auth configuration")
	}

	config := Config{APIKey: apiKey}

	if v, ok := settings["base_url"].(string); ok {
		config.BaseURL = v
	}
	if v, ok := settings["model"].(string); ok {
		config.Model = v
	}
	if v, ok := settings["language"].(string); ok {
		config.Language = v
	}
	if v, ok := settings["prompt"].(string); ok {
		config.Prompt = v
	}
	if v, ok := settings["temperature"].(float64); ok {
		config.Temperature = float32(v)
	}

	return NewProvider(config), nil
}
