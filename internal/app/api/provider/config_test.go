package provider

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigManager_LoadWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")

	cm, err := NewConfigManager(path)
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}

	config, err := cm.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.DefaultProvider != "faster_whisper" {
		t.Errorf("Expected faster_whisper default, got %q", config.DefaultProvider)
	}
	if !config.Providers["faster_whisper"].Enabled {
		t.Error("Expected faster_whisper to be enabled by default")
	}
	if config.Providers["openai"].Enabled {
		t.Error("Expected openai to be disabled by default")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected default config file to be written: %v", err)
	}
}

func TestConfigManager_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_WHISPER_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `
default_provider: openai
providers:
  openai:
    type: openai
    enabled: true
    auth:
      api_key: ${TEST_WHISPER_KEY}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cm, err := NewConfigManager(path)
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}
	config, err := cm.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := config.Providers["openai"].Auth.APIKey; got != "sk-from-env" {
		t.Errorf("Expected expanded api key, got %q", got)
	}
}

func TestConfigManager_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	cm, err := NewConfigManager(path)
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}

	config := DefaultConfiguration()
	config.DefaultProvider = "whisper_cpp"
	if err := cm.Save(config); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := cm.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.DefaultProvider != "whisper_cpp" {
		t.Errorf("Expected saved default provider, got %q", reloaded.DefaultProvider)
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProviderConfiguration)
		wantErr string
	}{
		{
			name:   "default is valid",
			mutate: func(c *ProviderConfiguration) {},
		},
		{
			name: "no providers",
			mutate: func(c *ProviderConfiguration) {
				c.Providers = nil
			},
			wantErr: "no providers",
		},
		{
			name: "missing type",
			mutate: func(c *ProviderConfiguration) {
				pc := c.Providers["openai"]
				pc.Type = ""
				c.Providers["openai"] = pc
			},
			wantErr: "type",
		},
		{
			name: "unknown default provider",
			mutate: func(c *ProviderConfiguration) {
				c.DefaultProvider = "missing"
			},
			wantErr: "default_provider",
		},
		{
			name: "unknown chain entry",
			mutate: func(c *ProviderConfiguration) {
				c.Orchestrator.FallbackChain = []string{"missing"}
			},
			wantErr: "fallback_chain",
		},
		{
			name: "bad backoff",
			mutate: func(c *ProviderConfiguration) {
				c.Orchestrator.RetryPolicy.BackoffMultiplier = 0.5
			},
			wantErr: "backoff_multiplier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfiguration()
			tt.mutate(config)

			err := ValidateConfiguration(config)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRuntimeOverrides_Apply(t *testing.T) {
	r := &RuntimeOverrides{}
	r.SetProvider("faster_whisper")
	r.SetLanguage("en")

	req := &TranscriptionRequest{InputFilePath: "a.mp3", Model: "explicit"}
	r.Apply(req)

	if req.Provider != "faster_whisper" {
		t.Errorf("Expected provider override, got %q", req.Provider)
	}
	if req.Language != "en" {
		t.Errorf("Expected language override, got %q", req.Language)
	}
	if req.Model != "explicit" {
		t.Errorf("Explicit request fields must not be overridden, got %q", req.Model)
	}

	r.Clear()
	req2 := &TranscriptionRequest{InputFilePath: "a.mp3"}
	r.Apply(req2)
	if req2.Provider != "" {
		t.Errorf("Expected cleared overrides, got %q", req2.Provider)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		format AudioFormat
		ok     bool
	}{
		{"episode.mp3", FormatMP3, true},
		{"episode.MP3", FormatMP3, true},
		{"/tmp/dir.name/voice.m4a", FormatM4A, true},
		{"interview.flac", FormatFLAC, true},
		{"clip.webm", FormatWEBM, true},
		{"notes.txt", "", false},
		{"noextension", "", false},
	}

	for _, tt := range tests {
		format, ok := FormatFromPath(tt.path)
		if format != tt.format || ok != tt.ok {
			t.Errorf("FormatFromPath(%q) = (%q, %v), want (%q, %v)", tt.path, format, ok, tt.format, tt.ok)
		}
	}
}
