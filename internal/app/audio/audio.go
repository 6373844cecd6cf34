package audio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"mp3player/internal/app/errors"
	"mp3player/internal/app/model"
)

// MaxSegmentSeconds guards extraction against nonsense ranges (5 hours).
const MaxSegmentSeconds = 18000

// Duration returns the audio duration in seconds via ffprobe.
func Duration(filePath string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration: %w", err)
	}
	return duration, nil
}

// DurationSeconds returns the duration rounded to whole seconds, the form
// the library rows store.
func DurationSeconds(filePath string) (int, error) {
	d, err := Duration(filePath)
	if err != nil {
		return 0, err
	}
	return int(math.Round(d)), nil
}

// Probe runs a full ffprobe stream/format inspection.
func Probe(filePath string) (*model.FFProbeOutput, error) {
	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", filePath)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}

	var probe model.FFProbeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &probe, nil
}

// Is16kHzWav reports whether the file is already 16kHz pcm_s16le, the input
// format local inference binaries expect.
func Is16kHzWav(filePath string) (bool, error) {
	probe, err := Probe(filePath)
	if err != nil {
		return false, err
	}
	for _, stream := range probe.Streams {
		if stream.CodecType == "audio" && stream.CodecName == "pcm_s16le" && stream.SampleRate == 16000 {
			return true, nil
		}
	}
	return false, nil
}

// ConvertTo16kHzWav produces <input>_16khz.wav next to the input, skipping
// the conversion when the output already exists.
func ConvertTo16kHzWav(inputFilePath string) (string, error) {
	outputFilePath := strings.TrimSuffix(inputFilePath, filepath.Ext(inputFilePath)) + "_16khz.wav"
	if _, err := os.Stat(outputFilePath); err == nil {
		return outputFilePath, nil
	}

	ext := strings.ToLower(filepath.Ext(inputFilePath))
	if ext != ".mp3" && ext != ".m4a" && ext != ".wav" {
		return "", fmt.Errorf("unsupported audio format not in [mp3,m4a,wav]: %s", ext)
	}

	cmd := exec.Command("ffmpeg", "-i", inputFilePath, "-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", outputFilePath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg error: %v, stderr: %s", err, stderr.String())
	}
	return outputFilePath, nil
}

// ValidateSegmentTimes checks an extraction range before shelling out.
func ValidateSegmentTimes(start, end float64) error {
	if start < 0 {
		return errors.InvalidField("start", "must be >= 0")
	}
	if end <= start {
		return errors.InvalidField("end", "must be greater than start")
	}
	if end-start > MaxSegmentSeconds {
		return errors.OutOfRange("segment duration", 0, MaxSegmentSeconds)
	}
	return nil
}

// ExtractSegment cuts [start, end) of the input into a 16kHz mono WAV under
// dir (os.TempDir when empty) and returns the written path. Callers own
// cleanup; see CleanupSegment.
func ExtractSegment(inputFilePath string, start, end float64, dir string) (string, error) {
	if err := ValidateSegmentTimes(start, end); err != nil {
		return "", err
	}
	if _, err := os.Stat(inputFilePath); err != nil {
		return "", errors.Wrap(errors.ErrFileNotFound, inputFilePath)
	}

	if dir == "" {
		dir = os.TempDir()
	}
	outPath := filepath.Join(dir, fmt.Sprintf("segment_%.2f_%.2f.wav", start, end))

	cmd := exec.Command("ffmpeg", "-y",
		"-i", inputFilePath,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end-start),
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-vn",
		"-f", "wav",
		outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg error: %v, stderr: %s", err, stderr.String())
	}
	return outPath, nil
}

// CleanupSegment removes an extracted temp segment, ignoring files that are
// already gone.
func CleanupSegment(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
