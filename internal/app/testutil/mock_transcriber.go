// Package testutil provides configurable in-memory fakes for the
// transcription stack and the transcript library, so pipeline, server,
// and job tests run without ffmpeg, providers, or a database.
package testutil

import (
	"sync"
	"time"

	"mp3player/internal/app/api"
	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/errors"
)

// TranscriptionCall records one call made against the mock.
type TranscriptionCall struct {
	InputFilePath string
	StartSec      float64
	EndSec        float64
	Segment       bool
}

// MockTranscriber is a fluent fake for api.Transcriber,
// api.SegmentTranscriber, and the pipeline's detailed-transcript
// interface. Configure per-file responses and errors, then inspect the
// recorded calls.
type MockTranscriber struct {
	mu sync.Mutex

	defaultResponse string
	providerName    string
	model           string
	duration        time.Duration
	latency         time.Duration

	responses map[string]string
	failures  map[string]error
	calls     []TranscriptionCall
}

func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{
		defaultResponse: "mock transcript",
		providerName:    "mock",
		responses:       make(map[string]string),
		failures:        make(map[string]error),
	}
}

// WithDefaultResponse sets the text returned for unconfigured paths.
func (m *MockTranscriber) WithDefaultResponse(text string) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResponse = text
	return m
}

// WithResponse maps one input path to a fixed transcript.
func (m *MockTranscriber) WithResponse(path, text string) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = text
	return m
}

// WithError makes transcription of one input path fail.
func (m *MockTranscriber) WithError(path string, err error) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = err
	return m
}

// WithProvider sets the provider name stamped on detailed responses.
func (m *MockTranscriber) WithProvider(name string) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerName = name
	return m
}

// WithModel sets the model name stamped on detailed responses.
func (m *MockTranscriber) WithModel(model string) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
	return m
}

// WithDuration sets the audio duration stamped on detailed responses.
func (m *MockTranscriber) WithDuration(d time.Duration) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
	return m
}

// WithLatency makes every call sleep, for exercising concurrency.
func (m *MockTranscriber) WithLatency(d time.Duration) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
	return m
}

func (m *MockTranscriber) Transcript(inputFilePath string) (string, error) {
	resp, err := m.TranscriptDetailed(inputFilePath)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (m *MockTranscriber) TranscriptDetailed(inputFilePath string) (*provider.TranscriptionResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, TranscriptionCall{InputFilePath: inputFilePath})
	text, err, latency := m.lookup(inputFilePath)
	resp := &provider.TranscriptionResponse{
		Text:      text,
		Provider:  m.providerName,
		ModelUsed: m.model,
		Duration:  m.duration,
	}
	m.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *MockTranscriber) TranscriptSegment(inputFilePath string, startSec, endSec float64) (string, error) {
	if startSec >= endSec {
		return "", errors.InvalidField("segment range", "start must be before end")
	}

	m.mu.Lock()
	m.calls = append(m.calls, TranscriptionCall{
		InputFilePath: inputFilePath,
		StartSec:      startSec,
		EndSec:        endSec,
		Segment:       true,
	})
	text, err, latency := m.lookup(inputFilePath)
	m.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}
	return text, err
}

// lookup must be called with the mutex held.
func (m *MockTranscriber) lookup(path string) (string, error, time.Duration) {
	if err, ok := m.failures[path]; ok {
		return "", err, m.latency
	}
	if text, ok := m.responses[path]; ok {
		return text, nil, m.latency
	}
	return m.defaultResponse, nil, m.latency
}

// Calls returns a copy of every recorded call.
func (m *MockTranscriber) Calls() []TranscriptionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]TranscriptionCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many calls were made.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// WasCalledWith reports whether any call used the given path.
func (m *MockTranscriber) WasCalledWith(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c.InputFilePath == path {
			return true
		}
	}
	return false
}

// Reset clears recorded calls but keeps the configuration.
func (m *MockTranscriber) Reset() *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	return m
}

var (
	_ api.Transcriber        = (*MockTranscriber)(nil)
	_ api.SegmentTranscriber = (*MockTranscriber)(nil)
)
