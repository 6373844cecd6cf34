package openai

import (
	"os"
	"sync"

	"github.com/sashabaranov/go-openai"

	"mp3player/internal/app/errors"
)

var (
	once      sync.Once
	singleton *openai.Client
	initErr   error
)

// GetClient returns the process-wide OpenAI client, created from the
// OPENAI_API_KEY environment variable on first use.
func GetClient() (*openai.Client, error) {
	once.Do(func() {
		token, ok := os.LookupEnv("OPENAI_API_KEY")
		if !ok || token == "" {
			initErr = errors.Wrap(errors.ErrMissingAPIKey, "OPENAI_API_KEY environment variable not set")
			return
		}
		singleton = openai.NewClient(token)
	})
	return singleton, initErr
}

// NewClient creates a client for an explicit key and optional base
// URL, bypassing the singleton. Used when credentials come from the
// providers config rather than the environment.
func NewClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}
