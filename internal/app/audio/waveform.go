package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WaveformBuckets is the default resolution of an extracted waveform.
const WaveformBuckets = 500

// Waveform holds normalized peak amplitudes, one per bucket, in [0, 1].
type Waveform struct {
	Peaks      []float64
	SampleRate int
	Duration   float64
}

// ExtractWaveform decodes a WAV file into bucketed peak amplitudes. The
// input must be a PCM WAV; use ConvertTo16kHzWav first for mp3 sources.
func ExtractWaveform(wavPath string, buckets int) (*Waveform, error) {
	if buckets <= 0 {
		buckets = WaveformBuckets
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file: %s", wavPath)
	}

	dur, err := decoder.Duration()
	if err != nil {
		return nil, fmt.Errorf("wav duration: %w", err)
	}

	sampleRate := int(decoder.SampleRate)
	numChans := int(decoder.NumChans)
	if numChans == 0 {
		numChans = 1
	}
	totalFrames := int(dur.Seconds() * float64(sampleRate))
	if totalFrames <= 0 {
		return &Waveform{Peaks: make([]float64, buckets), SampleRate: sampleRate, Duration: 0}, nil
	}

	framesPerBucket := totalFrames / buckets
	if framesPerBucket < 1 {
		framesPerBucket = 1
	}

	fullScale := float64(int(1) << (uint(decoder.BitDepth) - 1))
	if fullScale <= 0 {
		fullScale = 1 << 15
	}

	peaks := make([]float64, buckets)
	chunk := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:   make([]int, 8192*numChans),
	}

	frame := 0
	for {
		n, err := decoder.PCMBuffer(chunk)
		if err != nil {
			return nil, fmt.Errorf("decode wav: %w", err)
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i += numChans {
			bucket := frame / framesPerBucket
			if bucket >= buckets {
				bucket = buckets - 1
			}
			for c := 0; c < numChans && i+c < n; c++ {
				amp := float64(abs(chunk.Data[i+c])) / fullScale
				if amp > peaks[bucket] {
					peaks[bucket] = amp
				}
			}
			frame++
		}
	}

	return &Waveform{Peaks: peaks, SampleRate: sampleRate, Duration: dur.Seconds()}, nil
}

// Resample reduces peaks to width entries by taking the max of each span,
// for rendering into a narrower terminal.
func Resample(peaks []float64, width int) []float64 {
	if width <= 0 || len(peaks) == 0 {
		return nil
	}
	if width >= len(peaks) {
		out := make([]float64, len(peaks))
		copy(out, peaks)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		lo := i * len(peaks) / width
		hi := (i + 1) * len(peaks) / width
		if hi <= lo {
			hi = lo + 1
		}
		max := 0.0
		for _, p := range peaks[lo:hi] {
			if p > max {
				max = p
			}
		}
		out[i] = max
	}
	return out
}

var waveformGlyphs = []rune(" ▁▂▃▄▅▆▇█")

// RenderLine draws peaks as a single line of block glyphs.
func RenderLine(peaks []float64, width int) string {
	cols := Resample(peaks, width)
	runes := make([]rune, len(cols))
	for i, p := range cols {
		idx := int(p * float64(len(waveformGlyphs)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(waveformGlyphs) {
			idx = len(waveformGlyphs) - 1
		}
		runes[i] = waveformGlyphs[idx]
	}
	return string(runes)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
