package whisper_cpp

import (
	"go.uber.org/zap"

	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/errors"
)

func init() {
	provider.RegisterProvider("whisper_cpp", createProvider)
}

func createProvider(settings map[string]interface{}) (provider.TranscriptionProvider, error) {
	config := Config{}

	binaryPath, ok := settings["binary_path"].(string)
	if !ok || binaryPath == "" {
		return nil, errors.RequiredField("binary_path")
	}
	config.BinaryPath = binaryPath

	modelPath, ok := settings["model_path"].(string)
	if !ok || modelPath == "" {
		return nil, errors.RequiredField("model_path")
	}
	config.ModelPath = modelPath

	if v, ok := settings["language"].(string); ok {
		config.Language = v
	}
	if v, ok := settings["prompt"].(string); ok {
		config.Prompt = v
	}
	if v, ok := settings["temp_dir"].(string); ok {
		config.TempDir = v
	}

	var log *zap.Logger
	if l, ok := settings["logger"].(*zap.Logger); ok {
		log = l
	}

	return NewProvider(config, log), nil
}
