package provider

import (
	"sort"
	"sync"

	"mp3player/internal/app/errors"
)

// ProviderCreator builds a provider from its flattened configuration
// map (settings merged with auth, see BuildProviderFromConfig).
type ProviderCreator func(config map[string]interface{}) (TranscriptionProvider, error)

var (
	creatorsMu sync.RWMutex
	creators   = make(map[string]ProviderCreator)
)

// RegisterProvider makes a provider type constructible by name.
// Provider packages call this from init(); importing a provider
// package is what enables it.
func RegisterProvider(name string, creator ProviderCreator) {
	creatorsMu.Lock()
	defer creatorsMu.Unlock()
	creators[name] = creator
}

// BuildProviderFromConfig instantiates one named provider from its
// config file entry.
func BuildProviderFromConfig(name string, config ProviderConfig) (TranscriptionProvider, error) {
	creatorsMu.RLock()
	creator, ok := creators[config.Type]
	creatorsMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrProviderNotFound, "no provider registered for type %q (provider %q)", config.Type, name)
	}

	flat := make(map[string]interface{}, len(config.Settings)+2)
	for k, v := range config.Settings {
		flat[k] = v
	}
	if config.Auth.APIKey != "" {
		flat["api_key"] = config.Auth.APIKey
	}
	if config.Auth.BaseURL != "" {
		flat["base_url"] = config.Auth.BaseURL
	}

	p, err := creator(flat)
	if err != nil {
		return nil, errors.Wrapf(err, "create provider %q", name)
	}
	return p, nil
}

// ProviderFactory exposes the registered provider types without
// instantiating them.
type ProviderFactory interface {
	CreateProvider(providerType string, settings map[string]interface{}) (TranscriptionProvider, error)
	GetAvailableProviders() []string
	GetProviderInfo(providerType string) (ProviderInfo, error)
}

// DefaultProviderFactory answers from the creator registrations.
type DefaultProviderFactory struct{}

// NewProviderFactory creates a factory over the registered creators.
func NewProviderFactory() *DefaultProviderFactory {
	return &DefaultProviderFactory{}
}

func (f *DefaultProviderFactory) CreateProvider(providerType string, settings map[string]interface{}) (TranscriptionProvider, error) {
	creatorsMu.RLock()
	creator, ok := creators[providerType]
	creatorsMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrProviderNotFound, "unknown provider type %q", providerType)
	}
	return creator(settings)
}

func (f *DefaultProviderFactory) GetAvailableProviders() []string {
	creatorsMu.RLock()
	defer creatorsMu.RUnlock()

	names := make([]string, 0, len(creators))
	for name := range creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProviderInfo returns static capability metadata for a registered
// provider type. Kept in sync with each provider's GetProviderInfo.
func (f *DefaultProviderFactory) GetProviderInfo(providerType string) (ProviderInfo, error) {
	creatorsMu.RLock()
	_, registered := creators[providerType]
	creatorsMu.RUnlock()
	if !registered {
		return ProviderInfo{}, errors.Wrapf(errors.ErrProviderNotFound, "unknown provider type %q", providerType)
	}

	info, ok := staticProviderInfo[providerType]
	if !ok {
		return ProviderInfo{}, errors.Newf("no capability metadata for provider type %q", providerType)
	}
	return info, nil
}

// staticProviderInfo describes the built-in provider types so tooling
// can list capabilities without configuring anything.
var staticProviderInfo = map[string]ProviderInfo{
	"faster_whisper": {
		Name:                      "faster_whisper",
		DisplayName:               "Faster-Whisper (CTranslate2)",
		Type:                      ProviderTypeLocal,
		Version:                   "1.0.0",
		SupportedFormats:          []AudioFormat{FormatWAV, FormatMP3, FormatM4A, FormatFLAC, FormatOGG},
		SupportsTimestamps:        true,
		SupportsLanguageDetection: true,
		RequiresBinary:            true,
		DefaultModel:              "medium",
		AvailableModels:           []string{"tiny", "base", "small", "medium", "large-v3"},
	},
	"whisper_cpp": {
		Name:               "whisper_cpp",
		DisplayName:        "Whisper.cpp (local binary)",
		Type:               ProviderTypeLocal,
		Version:            "1.0.0",
		SupportedFormats:   []AudioFormat{FormatWAV, FormatMP3, FormatM4A},
		SupportsTimestamps: true,
		RequiresBinary:     true,
		DefaultModel:       "ggml-medium.bin",
	},
	"openai": {
		Name:                      "openai",
		DisplayName:               "OpenAI Whisper API",
		Type:                      ProviderTypeRemote,
		Version:                   "1.0.0",
		SupportedFormats:          []AudioFormat{FormatWAV, FormatMP3, FormatM4A, FormatWEBM},
		MaxFileSizeMB:             25,
		SupportsTimestamps:        true,
		SupportsWordLevel:         true,
		SupportsLanguageDetection: true,
		RequiresInternet:          true,
		RequiresAPIKey:            true,
		DefaultModel:              "whisper-1",
		AvailableModels:           []string{"whisper-1"},
	},
	"whisper_server": {
		Name:               "whisper_server",
		DisplayName:        "Whisper Server (HTTP API)",
		Type:               ProviderTypeHybrid,
		Version:            "1.0.0",
		SupportedFormats:   []AudioFormat{FormatWAV, FormatMP3, FormatM4A, FormatFLAC, FormatOGG, FormatWEBM},
		MaxFileSizeMB:      100,
		SupportsTimestamps: true,
		RequiresInternet:   true,
		DefaultModel:       "base",
	},
}
