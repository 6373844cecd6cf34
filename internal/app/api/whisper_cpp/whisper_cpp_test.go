package whisper_cpp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateProviderRequiresPaths(t *testing.T) {
	if _, err := createProvider(map[string]interface{}{}); err == nil {
		t.Error("Expected error when binary_path is missing")
	}

	if _, err := createProvider(map[string]interface{}{
		"binary_path": "/usr/local/bin/whisper-cpp",
	}); err == nil {
		t.Error("Expected error when model_path is missing")
	}

	p, err := createProvider(map[string]interface{}{
		"binary_path": "/usr/local/bin/whisper-cpp",
		"model_path":  "/models/ggml-medium.bin",
	})
	if err != nil {
		t.Fatalf("Expected provider, got error: %v", err)
	}
	if p == nil {
		t.Fatal("Expected non-nil provider")
	}
}

func TestValidateConfigurationMissingModel(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "whisper-cpp")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	p := NewProvider(Config{
		BinaryPath: binary,
		ModelPath:  filepath.Join(dir, "missing-model.bin"),
	}, nil)

	if err := p.ValidateConfiguration(); err == nil {
		t.Error("Expected error for missing model file")
	}
}

func TestValidateConfigurationOK(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "whisper-cpp")
	model := filepath.Join(dir, "ggml-base.bin")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(model, []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProvider(Config{BinaryPath: binary, ModelPath: model}, nil)
	if err := p.ValidateConfiguration(); err != nil {
		t.Errorf("Expected valid configuration, got %v", err)
	}
}

func TestProviderInfo(t *testing.T) {
	p := NewProvider(Config{BinaryPath: "/bin/true", ModelPath: "/m.bin"}, nil)

	info := p.GetProviderInfo()
	if info.Name != "whisper_cpp" {
		t.Errorf("Expected whisper_cpp, got %q", info.Name)
	}
	if !info.RequiresBinary {
		t.Error("whisper_cpp should require a binary")
	}
	if info.RequiresInternet {
		t.Error("whisper_cpp should not require internet")
	}
}
