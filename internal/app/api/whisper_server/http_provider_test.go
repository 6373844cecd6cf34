package whisper_server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mp3player/internal/app/api/provider"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscriptWithOptionsJSON(t *testing.T) {
	var gotFormat, gotLanguage string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("ParseMultipartForm failed: %v", err)
		}
		gotFormat = r.FormValue("response_format")
		gotLanguage = r.FormValue("language")

		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("Expected file part: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"text":     "  hello from the server  ",
			"language": "en",
			"segments": []map[string]interface{}{
				{"id": 0, "start": 0.0, "end": 2.5, "text": " hello "},
				{"id": 1, "start": 2.5, "end": 5.0, "text": " from the server "},
			},
		})
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL, Language: "en"}, nil)

	resp, err := p.TranscriptWithOptions(context.Background(), &provider.TranscriptionRequest{
		InputFilePath: writeTestAudio(t),
	})
	if err != nil {
		t.Fatalf("TranscriptWithOptions failed: %v", err)
	}

	if resp.Text != "hello from the server" {
		t.Errorf("Unexpected text %q", resp.Text)
	}
	if gotFormat != "json" {
		t.Errorf("Expected json response_format, got %q", gotFormat)
	}
	if gotLanguage != "en" {
		t.Errorf("Expected en language field, got %q", gotLanguage)
	}
	if len(resp.Segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(resp.Segments))
	}
	if resp.Segments[1].Text != "from the server" {
		t.Errorf("Segment text not trimmed: %q", resp.Segments[1].Text)
	}
	if resp.Duration.Seconds() != 5.0 {
		t.Errorf("Expected 5s duration from last segment, got %v", resp.Duration)
	}
}

func TestTranscriptTextFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain transcript\n"))
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL, ResponseFormat: "text"}, nil)

	text, err := p.Transcript(writeTestAudio(t))
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if text != "plain transcript" {
		t.Errorf("Unexpected text %q", text)
	}
}

func TestTranscriptServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model busy", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL}, nil)

	_, err := p.TranscriptWithOptions(context.Background(), &provider.TranscriptionRequest{
		InputFilePath: writeTestAudio(t),
	})
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}

	terr, ok := err.(*provider.TranscriptionError)
	if !ok {
		t.Fatalf("Expected TranscriptionError, got %T", err)
	}
	if !terr.Retryable {
		t.Error("5xx responses should be retryable")
	}
}

func TestTranscriptClientErrorIsNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad file", http.StatusBadRequest)
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL}, nil)

	_, err := p.TranscriptWithOptions(context.Background(), &provider.TranscriptionRequest{
		InputFilePath: writeTestAudio(t),
	})
	terr, ok := err.(*provider.TranscriptionError)
	if !ok {
		t.Fatalf("Expected TranscriptionError, got %T", err)
	}
	if terr.Retryable {
		t.Error("4xx responses should not be retryable")
	}
}

func TestAuthTokenHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL, AuthToken: "secret"}, nil)
	if _, err := p.Transcript(writeTestAudio(t)); err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Expected bearer token, got %q", gotAuth)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	p := NewProvider(Config{BaseURL: healthy.URL}, nil)
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("Expected healthy server, got %v", err)
	}

	loading := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer loading.Close()

	p = NewProvider(Config{BaseURL: loading.URL}, nil)
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("503 while loading should count as healthy, got %v", err)
	}
}

func TestExtractSubtitleText(t *testing.T) {
	srt := "1\n00:00:00,000 --> 00:00:02,000\nhello there\n\n2\n00:00:02,000 --> 00:00:04,000\ngeneral\n"
	if got := extractSubtitleText(srt); got != "hello there general" {
		t.Errorf("Unexpected srt extraction %q", got)
	}

	vtt := "WEBVTT\n\n00:00.000 --> 00:02.000\nfirst line\n\n00:02.000 --> 00:04.000\nsecond line\n"
	if got := extractSubtitleText(vtt); got != "first line second line" {
		t.Errorf("Unexpected vtt extraction %q", got)
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "http://localhost:8080"}, false},
		{"missing url", Config{}, true},
		{"bad scheme", Config{BaseURL: "ftp://server"}, true},
		{"bad format", Config{BaseURL: "http://x", ResponseFormat: "xml"}, true},
		{"bad temperature", Config{BaseURL: "http://x", Temperature: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewProvider(tt.config, nil).ValidateConfiguration()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
