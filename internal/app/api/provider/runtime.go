package provider

import (
	"sync"
)

// RuntimeOverrides lets command-line flags take precedence over the
// config file for one process run without rewriting it.
type RuntimeOverrides struct {
	mu       sync.RWMutex
	provider string
	model    string
	language string
}

var runtime = &RuntimeOverrides{}

// Runtime returns the process-wide override set.
func Runtime() *RuntimeOverrides {
	return runtime
}

// SetProvider pins all unpinned requests to the named provider.
func (r *RuntimeOverrides) SetProvider(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider = name
}

// SetModel overrides the model for all requests.
func (r *RuntimeOverrides) SetModel(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = model
}

// SetLanguage overrides the language hint for all requests.
func (r *RuntimeOverrides) SetLanguage(language string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.language = language
}

// Clear drops all overrides.
func (r *RuntimeOverrides) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider, r.model, r.language = "", "", ""
}

// Apply fills unset request fields from the overrides.
func (r *RuntimeOverrides) Apply(request *TranscriptionRequest) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if request.Provider == "" && r.provider != "" {
		request.Provider = r.provider
	}
	if request.Model == "" && r.model != "" {
		request.Model = r.model
	}
	if request.Language == "" && r.language != "" {
		request.Language = r.language
	}
}
