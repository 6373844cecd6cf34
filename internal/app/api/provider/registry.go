package provider

import (
	"context"
	"sort"
	"sync"

	"mp3player/internal/app/errors"
)

// DefaultProviderRegistry is a thread-safe in-memory registry. The
// first registered provider becomes the default until overridden.
type DefaultProviderRegistry struct {
	mu              sync.RWMutex
	providers       map[string]TranscriptionProvider
	defaultProvider string
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *DefaultProviderRegistry {
	return &DefaultProviderRegistry{
		providers: make(map[string]TranscriptionProvider),
	}
}

func (r *DefaultProviderRegistry) RegisterProvider(name string, provider TranscriptionProvider) error {
	if name == "" {
		return errors.RequiredField("provider name")
	}
	if provider == nil {
		return errors.RequiredField("provider")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return errors.Newf("provider %q is already registered", name)
	}

	r.providers[name] = provider
	if r.defaultProvider == "" {
		r.defaultProvider = name
	}
	return nil
}

func (r *DefaultProviderRegistry) GetProvider(name string) (TranscriptionProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrProviderNotFound, "provider %q", name)
	}
	return p, nil
}

func (r *DefaultProviderRegistry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *DefaultProviderRegistry) GetDefaultProvider() (TranscriptionProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultProvider == "" {
		return nil, errors.Wrap(errors.ErrProviderNotFound, "no default provider configured")
	}
	p, ok := r.providers[r.defaultProvider]
	if !ok {
		return nil, errors.Wrapf(errors.ErrProviderNotFound, "default provider %q", r.defaultProvider)
	}
	return p, nil
}

func (r *DefaultProviderRegistry) SetDefaultProvider(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return errors.Wrapf(errors.ErrProviderNotFound, "cannot set default: provider %q", name)
	}
	r.defaultProvider = name
	return nil
}

// HealthCheckAll probes every registered provider concurrently and
// returns a name-to-error map; a nil entry means healthy.
func (r *DefaultProviderRegistry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	snapshot := make(map[string]TranscriptionProvider, len(r.providers))
	for name, p := range r.providers {
		snapshot[name] = p
	}
	r.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]error, len(snapshot))
	)
	for name, p := range snapshot {
		wg.Add(1)
		go func(name string, p TranscriptionProvider) {
			defer wg.Done()
			err := p.HealthCheck(ctx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()
	return results
}
