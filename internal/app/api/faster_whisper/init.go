package faster_whisper

import (
	"go.uber.org/zap"

	"mp3player/internal/app/api/provider"
)

func init() {
	provider.RegisterProvider("faster_whisper", createProvider)
}

func createProvider(settings map[string]interface{}) (provider.TranscriptionProvider, error) {
	config := Config{}

	if v, ok := settings["binary_path"].(string); ok {
		config.BinaryPath = v
	}
	if v, ok := settings["model"].(string); ok {
		config.Model = v
	}
	if v, ok := settings["model_dir"].(string); ok {
		config.ModelDir = v
	}
	if v, ok := settings["device"].(string); ok {
		config.Device = v
	}
	if v, ok := settings["compute_type"].(string); ok {
		config.ComputeType = v
	}
	if v, ok := settings["language"].(string); ok {
		config.Language = v
	}
	if v, ok := settings["temp_dir"].(string); ok {
		config.TempDir = v
	}
	switch v := settings["beam_size"].(type) {
	case int:
		config.BeamSize = v
	case float64:
		config.BeamSize = int(v)
	}

	var log *zap.Logger
	if l, ok := settings["logger"].(*zap.Logger); ok {
		log = l
	}

	return NewProvider(config, log), nil
}
