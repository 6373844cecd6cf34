package whisper_cpp

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mp3player/internal/app/audio"
	"mp3player/internal/app/errors"
)

// LocalTranscriber runs the whisper.cpp main binary. Input files that
// are not 16kHz mono WAV are converted first, which is the only input
// format the binary accepts.
type LocalTranscriber struct {
	binaryPath string
	modelPath  string
	language   string
	prompt     string
	tempDir    string
	log        *zap.Logger
}

// NewLocalTranscriber creates a transcriber for the given binary and
// ggml model. A nil logger discards logs.
func NewLocalTranscriber(binaryPath, modelPath string, log *zap.Logger) *LocalTranscriber {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalTranscriber{
		binaryPath: binaryPath,
		modelPath:  modelPath,
		language:   "en",
		tempDir:    os.TempDir(),
		log:        log,
	}
}

// Transcript converts an audio file to text.
func (lt *LocalTranscriber) Transcript(inputFilePath string) (string, error) {
	return lt.TranscriptContext(context.Background(), inputFilePath, "", "")
}

// TranscriptContext converts an audio file to text with optional
// language and prompt overrides.
func (lt *LocalTranscriber) TranscriptContext(ctx context.Context, inputFilePath, language, prompt string) (string, error) {
	lt.log.Debug("starting whisper.cpp transcription", zap.String("file", inputFilePath))

	is16kHz, err := audio.Is16kHzWav(inputFilePath)
	if err != nil {
		return "", errors.Wrap(err, "probe input file")
	}
	if !is16kHz {
		lt.log.Debug("converting input to 16kHz wav", zap.String("file", inputFilePath))
		inputFilePath, err = audio.ConvertTo16kHzWav(inputFilePath)
		if err != nil {
			return "", errors.Wrap(err, "convert input file")
		}
	}

	outDir, err := os.MkdirTemp(lt.tempDir, "whispercpp_")
	if err != nil {
		return "", errors.Wrap(err, "create output directory")
	}
	defer os.RemoveAll(outDir)
	outputBase := filepath.Join(outDir, "transcript")

	if language == "" {
		language = lt.language
	}

	args := []string{
		"-m", lt.modelPath,
		"-l", language,
		"-otxt",
		"-f", inputFilePath,
		"-of", outputBase,
	}
	if prompt == "" {
		prompt = lt.prompt
	}
	if prompt != "" {
		args = append(args, "--prompt", prompt)
	}

	cmd := exec.CommandContext(ctx, lt.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	lt.log.Debug("running whisper.cpp",
		zap.String("binary", lt.binaryPath),
		zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(errors.ErrProviderTimeout, "whisper.cpp")
		}
		return "", errors.Newf("whisper.cpp failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	raw, err := os.ReadFile(outputBase + ".txt")
	if err != nil {
		return "", errors.Wrapf(errors.ErrFileReadFailed, "whisper.cpp output: %v", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
