package faster_whisper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBackendsCPUOnly(t *testing.T) {
	t.Setenv("WHISPER_COMPUTE_TYPE", "")
	tr := NewTranscriber(Config{Device: "cpu"}, nil)

	got := tr.backends()
	if len(got) != 1 {
		t.Fatalf("Expected a single cpu backend, got %v", got)
	}
	if got[0].device != "cpu" || got[0].computeType != "int8" {
		t.Errorf("Expected cpu/int8, got %v", got[0])
	}
}

func TestBackendsCPUWithPinnedComputeType(t *testing.T) {
	tr := NewTranscriber(Config{Device: "cpu", ComputeType: "float32"}, nil)

	got := tr.backends()
	if len(got) != 1 || got[0].computeType != "float32" {
		t.Errorf("Expected pinned cpu/float32, got %v", got)
	}
}

func TestBackendsLadderSkipsHalfPrecisionOnCPU(t *testing.T) {
	t.Setenv("WHISPER_COMPUTE_TYPE", "")
	tr := NewTranscriber(Config{Device: "auto"}, nil)

	for _, b := range tr.backends() {
		if b.device == "cpu" && (b.computeType == "float16" || b.computeType == "int8_float16") {
			t.Errorf("Half-precision compute type offered on cpu: %v", b)
		}
	}
}

func TestBackendsLadderOrder(t *testing.T) {
	t.Setenv("WHISPER_COMPUTE_TYPE", "")
	tr := NewTranscriber(Config{Device: "cuda"}, nil)

	got := tr.backends()
	want := []backend{
		{"cuda", "int8"}, {"cpu", "int8"},
		{"cuda", "int8_float16"},
		{"cuda", "float16"},
		{"cuda", "float32"}, {"cpu", "float32"},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d backends, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Backend %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestBackendsPinnedComputeType(t *testing.T) {
	tr := NewTranscriber(Config{Device: "cuda", ComputeType: "float32"}, nil)

	got := tr.backends()
	if len(got) != 2 {
		t.Fatalf("Expected cuda+cpu for pinned float32, got %v", got)
	}
	for _, b := range got {
		if b.computeType != "float32" {
			t.Errorf("Expected only float32, got %v", b)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	tr := NewTranscriber(Config{}, nil)

	if tr.config.BinaryPath != DefaultBinary {
		t.Errorf("Expected default binary, got %q", tr.config.BinaryPath)
	}
	if tr.config.Model != DefaultModel {
		t.Errorf("Expected default model, got %q", tr.config.Model)
	}
	if tr.config.BeamSize != DefaultBeamSize {
		t.Errorf("Expected default beam size, got %d", tr.config.BeamSize)
	}
	if tr.config.Language != DefaultLanguage {
		t.Errorf("Expected default language, got %q", tr.config.Language)
	}
}

func TestComputeTypeFromEnvironment(t *testing.T) {
	t.Setenv("WHISPER_COMPUTE_TYPE", "float32")

	tr := NewTranscriber(Config{}, nil)
	if tr.config.ComputeType != "float32" {
		t.Errorf("Expected compute type from environment, got %q", tr.config.ComputeType)
	}
}

func TestTranscriptMissingFile(t *testing.T) {
	tr := NewTranscriber(Config{Device: "cpu"}, nil)

	_, err := tr.Transcript(filepath.Join(t.TempDir(), "nope.mp3"))
	if err == nil {
		t.Error("Expected error for missing input file")
	}
}

func TestTranscriptMissingBinaryStopsLadder(t *testing.T) {
	input := filepath.Join(t.TempDir(), "in.wav")
	if err := os.WriteFile(input, []byte("not really audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := NewTranscriber(Config{
		BinaryPath: filepath.Join(t.TempDir(), "missing-binary"),
		Device:     "auto",
	}, nil)

	_, err := tr.TranscriptContext(context.Background(), input, "", "")
	if err == nil {
		t.Fatal("Expected error for missing binary")
	}
	if !isBinaryMissing(err) {
		t.Errorf("Expected a missing-binary error, got %v", err)
	}
}

func TestJoinLines(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello\nworld\n", "hello world"},
		{"  padded  \n\n\nlines ", "padded lines"},
		{"single", "single"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := joinLines(tt.in); got != tt.want {
			t.Errorf("joinLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/files/episode.mp3", "episode"},
		{"clip.tar.wav", "clip.tar"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := outputBaseName(tt.in); got != tt.want {
			t.Errorf("outputBaseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsGPUFailure(t *testing.T) {
	if !isGPUFailure("Unable to load libcudnn_ops.so: cuDNN version mismatch") {
		t.Error("Expected cuDNN message to count as GPU failure")
	}
	if !isGPUFailure("CUDA driver version is insufficient") {
		t.Error("Expected CUDA message to count as GPU failure")
	}
	if isGPUFailure("file not found") {
		t.Error("Unrelated errors must not count as GPU failures")
	}
}

func TestProviderValidateConfiguration(t *testing.T) {
	p := NewProvider(Config{Device: "quantum"}, nil)
	if err := p.ValidateConfiguration(); err == nil {
		t.Error("Expected error for invalid device")
	}

	p = NewProvider(Config{Device: "cpu", ComputeType: "int9"}, nil)
	if err := p.ValidateConfiguration(); err == nil {
		t.Error("Expected error for invalid compute type")
	}
}
