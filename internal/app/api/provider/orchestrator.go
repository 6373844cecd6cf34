package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mp3player/internal/app/errors"
)

// RetryPolicy controls per-provider retry behavior. Only failures
// marked retryable are reattempted.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// OrchestratorConfig selects the fallback chain and retry policy.
type OrchestratorConfig struct {
	// FallbackChain lists provider names in preference order. Empty
	// means use the registry default only.
	FallbackChain []string    `yaml:"fallback_chain"`
	RetryPolicy   RetryPolicy `yaml:"retry_policy"`
}

// DefaultRetryPolicy matches the defaults written to a fresh config.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    500,
		BackoffMultiplier: 2.0,
	}
}

// DefaultTranscriptionOrchestrator walks the fallback chain, skipping
// providers whose recent history marks them unhealthy, and retries
// transient failures within each provider before moving on.
type DefaultTranscriptionOrchestrator struct {
	registry ProviderRegistry
	metrics  ProviderMetrics
	config   OrchestratorConfig
	log      *zap.Logger
}

// NewTranscriptionOrchestrator creates an orchestrator over the given
// registry. A nil metrics sink disables health-based skipping; a nil
// logger discards logs.
func NewTranscriptionOrchestrator(registry ProviderRegistry, metrics ProviderMetrics, config OrchestratorConfig, log *zap.Logger) *DefaultTranscriptionOrchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	if config.RetryPolicy.MaxAttempts <= 0 {
		config.RetryPolicy = DefaultRetryPolicy()
	}
	return &DefaultTranscriptionOrchestrator{
		registry: registry,
		metrics:  metrics,
		config:   config,
		log:      log,
	}
}

// Transcribe runs the request against the first provider that
// succeeds. A request that pins a provider bypasses the chain and
// health checks entirely.
func (o *DefaultTranscriptionOrchestrator) Transcribe(ctx context.Context, request *TranscriptionRequest) (*TranscriptionResponse, error) {
	if request == nil || request.InputFilePath == "" {
		return nil, errors.RequiredField("input file path")
	}

	if request.Provider != "" {
		p, err := o.registry.GetProvider(request.Provider)
		if err != nil {
			return nil, err
		}
		return o.tryProvider(ctx, request.Provider, p, request)
	}

	chain := o.chain()
	if len(chain) == 0 {
		return nil, errors.Wrap(errors.ErrProviderNotFound, "no providers available")
	}

	var failures []error
	for _, name := range chain {
		p, err := o.registry.GetProvider(name)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if o.metrics != nil && !o.metrics.IsProviderHealthy(name) {
			o.log.Warn("skipping unhealthy provider", zap.String("provider", name))
			continue
		}

		resp, err := o.tryProvider(ctx, name, p, request)
		if err == nil {
			return resp, nil
		}
		failures = append(failures, err)
		if ctx.Err() != nil {
			break
		}
		o.log.Warn("provider failed, trying next in chain",
			zap.String("provider", name),
			zap.Error(err))
	}

	return nil, errors.Wrap(errors.Join(failures...), "all transcription providers failed")
}

// chain resolves the provider order for unpinned requests.
func (o *DefaultTranscriptionOrchestrator) chain() []string {
	if len(o.config.FallbackChain) > 0 {
		return o.config.FallbackChain
	}
	if p, err := o.registry.GetDefaultProvider(); err == nil {
		return []string{p.GetProviderInfo().Name}
	}
	return nil
}

func (o *DefaultTranscriptionOrchestrator) tryProvider(ctx context.Context, name string, p TranscriptionProvider, request *TranscriptionRequest) (*TranscriptionResponse, error) {
	policy := o.config.RetryPolicy
	delay := time.Duration(policy.InitialDelayMs) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		start := time.Now()
		resp, err := p.TranscriptWithOptions(ctx, request)
		latencyMs := time.Since(start).Milliseconds()

		if err == nil {
			resp.Provider = name
			if o.metrics != nil {
				o.metrics.RecordSuccess(name, latencyMs, resp.Duration.Seconds())
			}
			o.log.Info("transcription succeeded",
				zap.String("provider", name),
				zap.Int("attempt", attempt),
				zap.Int64("latency_ms", latencyMs))
			return resp, nil
		}

		lastErr = err
		if o.metrics != nil {
			o.metrics.RecordFailure(name, errorCode(err))
		}
		if !isRetryable(err) || attempt == policy.MaxAttempts {
			break
		}

		o.log.Warn("retrying provider",
			zap.String("provider", name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * policy.BackoffMultiplier)
	}

	return nil, errors.Wrapf(lastErr, "provider %s", name)
}

func isRetryable(err error) bool {
	var terr *TranscriptionError
	if errors.As(err, &terr) {
		return terr.Retryable
	}
	return false
}

func errorCode(err error) string {
	var terr *TranscriptionError
	if errors.As(err, &terr) && terr.Code != "" {
		return terr.Code
	}
	return "unknown_error"
}
