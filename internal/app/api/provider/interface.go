package provider

import (
	"context"
)

// TranscriptionProvider is the contract every speech-to-text backend
// implements. Transcript is the simple path used by batch tooling;
// TranscriptWithOptions carries per-request overrides and returns the
// full response including timing metadata.
type TranscriptionProvider interface {
	// Transcript converts an audio file to text using the provider's
	// configured defaults.
	Transcript(inputFilePath string) (string, error)

	// TranscriptWithOptions converts an audio file to text with
	// per-request options. The context bounds the whole operation.
	TranscriptWithOptions(ctx context.Context, request *TranscriptionRequest) (*TranscriptionResponse, error)

	// GetProviderInfo describes the provider's capabilities.
	GetProviderInfo() ProviderInfo

	// ValidateConfiguration checks that the provider is usable with its
	// current settings, without touching the network.
	ValidateConfiguration() error

	// HealthCheck verifies the provider can actually serve requests.
	HealthCheck(ctx context.Context) error
}

// ProviderRegistry tracks instantiated providers by name.
type ProviderRegistry interface {
	RegisterProvider(name string, provider TranscriptionProvider) error
	GetProvider(name string) (TranscriptionProvider, error)
	ListProviders() []string
	GetDefaultProvider() (TranscriptionProvider, error)
	SetDefaultProvider(name string) error
	HealthCheckAll(ctx context.Context) map[string]error
}

// ProviderMetrics records per-provider outcomes and exposes aggregate
// statistics used for health-based routing.
type ProviderMetrics interface {
	RecordSuccess(provider string, latencyMs int64, audioSeconds float64)
	RecordFailure(provider string, errorCode string)
	GetProviderMetrics(provider string) ProviderStats
	GetOverallMetrics() OverallStats
	IsProviderHealthy(provider string) bool
}

// TranscriptionOrchestrator dispatches a request across a fallback
// chain of providers with retries.
type TranscriptionOrchestrator interface {
	Transcribe(ctx context.Context, request *TranscriptionRequest) (*TranscriptionResponse, error)
}
