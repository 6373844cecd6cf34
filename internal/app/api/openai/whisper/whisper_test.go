package whisper

import (
	"testing"

	"mp3player/internal/app/errors"
)

func TestCreateProviderRequiresAPIKey(t *testing.T) {
	_, err := createProvider(map[string]interface{}{})
	if err == nil {
		t.Fatal("Expected error when api_key is missing")
	}
	if !errors.Is(err, errors.ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestCreateProviderDefaults(t *testing.T) {
	p, err := createProvider(map[string]interface{}{"api_key": "sk-test"})
	if err != nil {
		t.Fatalf("createProvider failed: %v", err)
	}

	info := p.GetProviderInfo()
	if info.Name != "openai" {
		t.Errorf("Expected openai, got %q", info.Name)
	}
	if !info.RequiresAPIKey || !info.RequiresInternet {
		t.Error("openai provider should require api key and internet")
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{APIKey: "sk-test"}, false},
		{"missing key", Config{}, true},
		{"malformed key", Config{APIKey: "not-a-key"}, true},
		{"temperature too high", Config{APIKey: "sk-test", Temperature: 1.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewProvider(tt.config).ValidateConfiguration()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
