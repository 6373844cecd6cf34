package provider

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mp3player/internal/app/errors"
)

// ProviderConfiguration is the root of the providers config file.
type ProviderConfiguration struct {
	// DefaultProvider names the provider used when no chain matches.
	DefaultProvider string `yaml:"default_provider"`

	// Providers maps a provider name to its configuration.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Orchestrator controls fallback and retry behavior.
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`

	// Global holds settings shared by all providers.
	Global GlobalConfig `yaml:"global"`
}

// ProviderConfig configures a single provider instance.
type ProviderConfig struct {
	// Type selects the provider implementation, e.g. "faster_whisper".
	Type string `yaml:"type"`

	// Enabled providers are instantiated at startup.
	Enabled bool `yaml:"enabled"`

	// Settings are provider-specific options.
	Settings map[string]interface{} `yaml:"settings,omitempty"`

	// Auth carries credentials for remote providers.
	Auth AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig carries provider credentials. Values are expanded against
// the environment, so "${OPENAI_API_KEY}" works.
type AuthConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// GlobalConfig holds cross-provider settings.
type GlobalConfig struct {
	// TimeoutSec bounds a single transcription end to end.
	TimeoutSec int `yaml:"timeout_sec,omitempty"`

	// TempDir is where intermediate audio files are written. Empty
	// means the system temp directory.
	TempDir string `yaml:"temp_dir,omitempty"`

	// Metrics controls outcome recording and export.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// MetricsConfig controls the metrics sink.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// ExportFormat selects the export surface; "prometheus" registers
	// collectors on the default registry.
	ExportFormat string `yaml:"export_format,omitempty"`
}

// DefaultConfigPath returns ~/.mp3player/providers.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, ".mp3player", "providers.yaml"), nil
}

// ConfigManager loads, validates, and persists the providers config.
type ConfigManager struct {
	path   string
	config *ProviderConfiguration
}

// NewConfigManager creates a manager for the given path. An empty path
// selects DefaultConfigPath.
func NewConfigManager(path string) (*ConfigManager, error) {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	return &ConfigManager{path: path}, nil
}

// Path returns the config file location.
func (cm *ConfigManager) Path() string {
	return cm.path
}

// Load reads the config file, writing a commented default first if the
// file does not exist. Environment references like ${VAR} are expanded
// before parsing.
func (cm *ConfigManager) Load() (*ProviderConfiguration, error) {
	if _, err := os.Stat(cm.path); os.IsNotExist(err) {
		if err := cm.writeDefault(); err != nil {
			return nil, err
		}
	}

	raw, err := os.ReadFile(cm.path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFileReadFailed, "read provider config %s: %v", cm.path, err)
	}

	expanded := os.ExpandEnv(string(raw))

	var config ProviderConfiguration
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "parse %s: %v", cm.path, err)
	}

	if err := ValidateConfiguration(&config); err != nil {
		return nil, err
	}

	cm.config = &config
	return &config, nil
}

// Save writes the configuration back to disk.
func (cm *ConfigManager) Save(config *ProviderConfiguration) error {
	if err := ValidateConfiguration(config); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "marshal provider config")
	}

	if err := os.MkdirAll(filepath.Dir(cm.path), 0o755); err != nil {
		return errors.Wrapf(err, "create config directory for %s", cm.path)
	}
	if err := os.WriteFile(cm.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write provider config %s", cm.path)
	}

	cm.config = config
	return nil
}

// GetProviderConfig returns one provider's entry from the last loaded
// configuration.
func (cm *ConfigManager) GetProviderConfig(name string) (ProviderConfig, error) {
	if cm.config == nil {
		return ProviderConfig{}, errors.Wrap(errors.ErrMissingConfig, "configuration not loaded")
	}
	pc, ok := cm.config.Providers[name]
	if !ok {
		return ProviderConfig{}, errors.Wrapf(errors.ErrProviderNotFound, "provider %q not configured", name)
	}
	return pc, nil
}

// ValidateConfiguration rejects configs that cannot possibly work.
func ValidateConfiguration(config *ProviderConfiguration) error {
	if config == nil {
		return errors.Wrap(errors.ErrMissingConfig, "nil configuration")
	}
	if len(config.Providers) == 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "no providers configured")
	}

	for name, pc := range config.Providers {
		if pc.Type == "" {
			return errors.InvalidField("providers."+name+".type", "must not be empty")
		}
	}

	if config.DefaultProvider != "" {
		if _, ok := config.Providers[config.DefaultProvider]; !ok {
			return errors.InvalidField("default_provider", "references unknown provider "+config.DefaultProvider)
		}
	}

	for _, name := range config.Orchestrator.FallbackChain {
		if _, ok := config.Providers[name]; !ok {
			return errors.InvalidField("orchestrator.fallback_chain", "references unknown provider "+name)
		}
	}

	rp := config.Orchestrator.RetryPolicy
	if rp.MaxAttempts < 0 {
		return errors.InvalidField("orchestrator.retry_policy.max_attempts", "must not be negative")
	}
	if rp.BackoffMultiplier != 0 && rp.BackoffMultiplier < 1 {
		return errors.InvalidField("orchestrator.retry_policy.backoff_multiplier", "must be at least 1")
	}

	return nil
}

// DefaultConfiguration is what a fresh install gets: faster-whisper as
// the only enabled provider, whisper.cpp as an offline fallback stub,
// and the remote providers present but disabled.
func DefaultConfiguration() *ProviderConfiguration {
	return &ProviderConfiguration{
		DefaultProvider: "faster_whisper",
		Providers: map[string]ProviderConfig{
			"faster_whisper": {
				Type:    "faster_whisper",
				Enabled: true,
				Settings: map[string]interface{}{
					"model":     "medium",
					"device":    "auto",
					"beam_size": 5,
					"language":  "en",
				},
			},
			"whisper_cpp": {
				Type:    "whisper_cpp",
				Enabled: false,
				Settings: map[string]interface{}{
					"binary_path": "/usr/local/bin/whisper-cpp",
					"model_path":  "${HOME}/.mp3player/models/ggml-medium.bin",
				},
			},
			"openai": {
				Type:    "openai",
				Enabled: false,
				Auth: AuthConfig{
					APIKey: "${OPENAI_API_KEY}",
				},
			},
			"whisper_server": {
				Type:    "whisper_server",
				Enabled: false,
				Settings: map[string]interface{}{
					"base_url": "http://localhost:8080",
				},
			},
		},
		Orchestrator: OrchestratorConfig{
			FallbackChain: []string{"faster_whisper"},
			RetryPolicy:   DefaultRetryPolicy(),
		},
		Global: GlobalConfig{
			TimeoutSec: 600,
			Metrics: MetricsConfig{
				Enabled:      true,
				ExportFormat: "prometheus",
			},
		},
	}
}

func (cm *ConfigManager) writeDefault() error {
	data, err := yaml.Marshal(DefaultConfiguration())
	if err != nil {
		return errors.Wrap(err, "marshal default provider config")
	}

	header := []byte("# Transcription provider configuration.\n" +
		"# ${VAR} references are expanded from the environment at load time.\n")

	if err := os.MkdirAll(filepath.Dir(cm.path), 0o755); err != nil {
		return errors.Wrapf(err, "create config directory for %s", cm.path)
	}
	if err := os.WriteFile(cm.path, append(header, data...), 0o644); err != nil {
		return errors.Wrapf(err, "write default provider config %s", cm.path)
	}
	return nil
}
