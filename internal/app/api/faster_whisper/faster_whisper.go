package faster_whisper

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mp3player/internal/app/errors"
)

// Default decoding parameters. Beam size 5 trades a little speed for
// noticeably fewer hallucinated words on speech with long pauses.
const (
	DefaultBinary   = "whisper-ctranslate2"
	DefaultModel    = "medium"
	DefaultDevice   = "auto"
	DefaultBeamSize = 5
	DefaultLanguage = "en"
)

// computeTypeLadder is tried in order until the model loads. int8 runs
// everywhere; the float16 variants only exist on GPU.
var computeTypeLadder = []string{"int8", "int8_float16", "float16", "float32"}

// Config holds the faster-whisper CLI settings.
type Config struct {
	// BinaryPath is the whisper-ctranslate2 executable.
	BinaryPath string `yaml:"binary_path"`

	// Model is a model size name (tiny, base, small, medium, large-v3).
	Model string `yaml:"model"`

	// ModelDir points at a converted CTranslate2 model directory and
	// takes precedence over Model.
	ModelDir string `yaml:"model_dir"`

	// Device is auto, cuda, or cpu. Auto tries cuda first and falls
	// back to cpu when the GPU stack is unusable.
	Device string `yaml:"device"`

	// ComputeType pins one compute type instead of trying the ladder.
	// Also settable via the WHISPER_COMPUTE_TYPE environment variable.
	ComputeType string `yaml:"compute_type"`

	// BeamSize is the decoding beam width.
	BeamSize int `yaml:"beam_size"`

	// Language is the ISO 639-1 transcription language.
	Language string `yaml:"language"`

	// TempDir receives the CLI's output files. Empty means the system
	// temp directory.
	TempDir string `yaml:"temp_dir"`
}

func (c *Config) applyDefaults() {
	if c.BinaryPath == "" {
		c.BinaryPath = DefaultBinary
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.ComputeType == "" {
		c.ComputeType = os.Getenv("WHISPER_COMPUTE_TYPE")
	}
	if c.BeamSize <= 0 {
		c.BeamSize = DefaultBeamSize
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
}

// backend is one (device, compute type) combination the CLI can run
// with.
type backend struct {
	device      string
	computeType string
}

// Transcriber shells out to whisper-ctranslate2. The first backend
// combination that works is remembered, so the fallback ladder is only
// walked once per process.
type Transcriber struct {
	config Config
	log    *zap.Logger

	mu     sync.Mutex
	proven *backend
}

// NewTranscriber creates a transcriber with the given config. A nil
// logger discards logs.
func NewTranscriber(config Config, log *zap.Logger) *Transcriber {
	config.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Transcriber{config: config, log: log}
}

// backends returns the combinations to try, most preferred first.
func (t *Transcriber) backends() []backend {
	ladder := computeTypeLadder
	if t.config.ComputeType != "" {
		ladder = []string{t.config.ComputeType}
	}

	if t.config.Device == "cpu" {
		ct := t.config.ComputeType
		if ct == "" {
			ct = "int8"
		}
		return []backend{{device: "cpu", computeType: ct}}
	}

	var out []backend
	for _, ct := range ladder {
		for _, device := range []string{"cuda", "cpu"} {
			if device == "cpu" && (ct == "float16" || ct == "int8_float16") {
				continue
			}
			out = append(out, backend{device: device, computeType: ct})
		}
	}
	return out
}

// Transcript transcribes a whole file with the configured defaults.
func (t *Transcriber) Transcript(inputFilePath string) (string, error) {
	return t.TranscriptContext(context.Background(), inputFilePath, "", "")
}

// TranscriptContext transcribes with optional language and model
// overrides, walking the backend ladder until one combination works.
func (t *Transcriber) TranscriptContext(ctx context.Context, inputFilePath, language, model string) (string, error) {
	if _, err := os.Stat(inputFilePath); err != nil {
		return "", errors.Wrapf(errors.ErrFileNotFound, "%s", inputFilePath)
	}

	if b := t.provenBackend(); b != nil {
		text, err := t.runOnce(ctx, *b, inputFilePath, language, model)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		t.log.Warn("previously working backend failed, re-probing ladder",
			zap.String("device", b.device),
			zap.String("compute_type", b.computeType),
			zap.Error(err))
		t.setProven(nil)
	}

	var lastErr error
	cudaDead := false
	for _, b := range t.backends() {
		if cudaDead && b.device == "cuda" {
			continue
		}
		text, err := t.runOnce(ctx, b, inputFilePath, language, model)
		if err == nil {
			t.setProven(&b)
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if errors.Is(err, errors.ErrFileNotFound) || isBinaryMissing(err) {
			break
		}
		if b.device == "cuda" && isGPUFailure(err.Error()) {
			cudaDead = true
			t.log.Warn("GPU backend unusable, falling back to CPU", zap.Error(err))
			continue
		}
		t.log.Warn("backend failed, trying next",
			zap.String("device", b.device),
			zap.String("compute_type", b.computeType),
			zap.Error(err))
	}
	return "", lastErr
}

func (t *Transcriber) provenBackend() *backend {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.proven
}

func (t *Transcriber) setProven(b *backend) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.proven = b
}

// runOnce invokes the CLI for one backend combination and reads back
// the text output file it produces.
func (t *Transcriber) runOnce(ctx context.Context, b backend, inputFilePath, language, model string) (string, error) {
	outDir, err := os.MkdirTemp(t.config.TempDir, "fwhisper_")
	if err != nil {
		return "", errors.Wrap(err, "create output directory")
	}
	defer os.RemoveAll(outDir)

	if language == "" {
		language = t.config.Language
	}

	args := []string{inputFilePath}
	if t.config.ModelDir != "" {
		args = append(args, "--model_directory", t.config.ModelDir)
	} else {
		m := t.config.Model
		if model != "" {
			m = model
		}
		args = append(args, "--model", m)
	}
	args = append(args,
		"--device", b.device,
		"--compute_type", b.computeType,
		"--beam_size", strconv.Itoa(t.config.BeamSize),
		"--language", language,
		"--output_format", "txt",
		"--output_dir", outDir,
		"--verbose", "False",
	)

	t.log.Debug("running faster-whisper",
		zap.String("binary", t.config.BinaryPath),
		zap.String("device", b.device),
		zap.String("compute_type", b.computeType),
		zap.String("file", inputFilePath))

	cmd := exec.CommandContext(ctx, t.config.BinaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(errors.ErrProviderTimeout, "faster-whisper")
		}
		return "", classifyRunError(err, stderr.String())
	}

	outPath := filepath.Join(outDir, outputBaseName(inputFilePath)+".txt")
	raw, err := os.ReadFile(outPath)
	if err != nil {
		return "", errors.Wrapf(errors.ErrFileReadFailed, "faster-whisper output %s: %v", outPath, err)
	}
	return joinLines(string(raw)), nil
}

// outputBaseName mirrors how the CLI names its output files.
func outputBaseName(inputFilePath string) string {
	base := filepath.Base(inputFilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// joinLines collapses the CLI's one-segment-per-line output into a
// single space-separated transcript.
func joinLines(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

func classifyRunError(err error, stderr string) error {
	if isBinaryMissing(err) {
		return errors.Wrapf(err, "%s not found (pip install whisper-ctranslate2)", DefaultBinary)
	}
	if stderr != "" {
		return errors.Newf("faster-whisper failed: %v: %s", err, strings.TrimSpace(stderr))
	}
	return errors.Wrap(err, "faster-whisper failed")
}

// isBinaryMissing detects a missing executable, which no amount of
// ladder walking will fix.
func isBinaryMissing(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

// isGPUFailure matches the CUDA and cuDNN load errors that mean this
// machine cannot run the GPU backends.
func isGPUFailure(msg string) bool {
	for _, marker := range []string{"cuDNN", "CUDA", "cublas", "out of memory"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
