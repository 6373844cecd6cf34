package provider

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mp3player/internal/app/errors"
)

// Stack bundles everything the transcription config describes: the
// instantiated providers, the metrics sink, the orchestrator, and the
// adapter the application code talks to.
type Stack struct {
	Config       *ProviderConfiguration
	Registry     *DefaultProviderRegistry
	Metrics      ProviderMetrics
	Orchestrator TranscriptionOrchestrator
	Transcriber  *TranscriberAdapter
}

// StackOptions parameterize stack construction.
type StackOptions struct {
	// ConfigPath locates the providers file; empty selects
	// DefaultConfigPath (a default file is written if missing).
	ConfigPath string

	// Logger receives orchestration logs; nil discards them.
	Logger *zap.Logger

	// Registerer receives Prometheus collectors when the config asks
	// for prometheus export. Nil disables export regardless of config.
	Registerer prometheus.Registerer
}

// NewStack loads the providers config and builds the full stack.
func NewStack(opts StackOptions) (*Stack, error) {
	cm, err := NewConfigManager(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}
	return NewStackFromConfig(config, opts)
}

// NewStackFromConfig builds the stack from an already loaded config.
// Only enabled providers are instantiated; an instantiation failure is
// fatal so misconfiguration surfaces at startup, not mid-transcription.
func NewStackFromConfig(config *ProviderConfiguration, opts StackOptions) (*Stack, error) {
	if err := ValidateConfiguration(config); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	registry := NewProviderRegistry()
	enabled := 0
	for name, pc := range config.Providers {
		if !pc.Enabled {
			continue
		}
		p, err := BuildProviderFromConfig(name, pc)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterProvider(name, p); err != nil {
			return nil, err
		}
		enabled++
		log.Debug("registered transcription provider",
			zap.String("provider", name),
			zap.String("type", pc.Type))
	}
	if enabled == 0 {
		return nil, errors.Wrap(errors.ErrProviderDisabled, "no providers enabled in configuration")
	}

	if config.DefaultProvider != "" {
		if err := registry.SetDefaultProvider(config.DefaultProvider); err != nil {
			log.Warn("configured default provider is not enabled",
				zap.String("provider", config.DefaultProvider))
		}
	}

	var metrics ProviderMetrics
	if config.Global.Metrics.Enabled {
		metrics = NewProviderMetrics()
		if config.Global.Metrics.ExportFormat == "prometheus" && opts.Registerer != nil {
			metrics = NewPrometheusMetrics(opts.Registerer, metrics)
		}
	}

	chain := pruneChain(config.Orchestrator.FallbackChain, registry)
	orchestrator := NewTranscriptionOrchestrator(registry, metrics, OrchestratorConfig{
		FallbackChain: chain,
		RetryPolicy:   config.Orchestrator.RetryPolicy,
	}, log)

	adapter := NewTranscriberAdapter(orchestrator,
		time.Duration(config.Global.TimeoutSec)*time.Second,
		config.Global.TempDir,
		log)

	return &Stack{
		Config:       config,
		Registry:     registry,
		Metrics:      metrics,
		Orchestrator: orchestrator,
		Transcriber:  adapter,
	}, nil
}

// pruneChain drops chain entries whose provider is not enabled, so a
// disabled provider in the file does not poison every request.
func pruneChain(chain []string, registry *DefaultProviderRegistry) []string {
	pruned := make([]string, 0, len(chain))
	for _, name := range chain {
		if _, err := registry.GetProvider(name); err == nil {
			pruned = append(pruned, name)
		}
	}
	return pruned
}
