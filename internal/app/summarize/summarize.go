// Package summarize turns a file's transcript into a short summary via
// Gemini, falling back to OpenAI chat when no Gemini key is configured
// or the call fails.
package summarize

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"go.uber.org/zap"

	"mp3player/internal/app/api/openai/chat"
	"mp3player/internal/app/errors"
	"mp3player/internal/config"
)

// DefaultGeminiModel serves summaries when Gemini is selected.
const DefaultGeminiModel = "gemini-2.0-flash"

const systemPrompt = "You summarize audio transcripts. Reply with a concise summary " +
	"of the main points in the transcript's own language, at most one short paragraph."

// Summarizer picks a backend per call based on the configured keys.
type Summarizer struct {
	keys *config.APIKeys
	log  *zap.Logger

	// GeminiModel overrides DefaultGeminiModel.
	GeminiModel string

	// Backends are swappable for tests.
	gemini func(ctx context.Context, model, prompt string) (string, error)
	openai func(ctx context.Context, prompt string) (string, error)
}

// New builds a Summarizer for the given keys.
func New(keys *config.APIKeys, log *zap.Logger) *Summarizer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Summarizer{keys: keys, log: log}
	s.gemini = s.geminiComplete
	s.openai = func(ctx context.Context, prompt string) (string, error) {
		return chat.Complete(ctx, "", systemPrompt, prompt)
	}
	return s
}

// Summarize produces a summary of transcript. Gemini is preferred when
// its key is present; OpenAI is used otherwise or when Gemini fails.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", errors.RequiredField("transcript")
	}
	if err := config.RequireAPIKeys(s.keys); err != nil {
		return "", err
	}

	prompt := "Summarize this transcript:\n\n" + transcript

	if s.keys.Gemini != "" {
		model := s.GeminiModel
		if model == "" {
			model = DefaultGeminiModel
		}
		summary, err := s.gemini(ctx, model, prompt)
		if err == nil {
			return summary, nil
		}
		if s.keys.OpenAI == "" {
			return "", errors.Wrap(err, "gemini summary")
		}
		s.log.Warn("gemini summary failed, falling back to openai", zap.Error(err))
	}

	summary, err := s.openai(ctx, prompt)
	if err != nil {
		return "", errors.Wrap(err, "openai summary")
	}
	return summary, nil
}

func (s *Summarizer) geminiComplete(ctx context.Context, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.keys.Gemini,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", errors.Wrap(err, "create gemini client")
	}

	resp, err := client.Models.GenerateContent(ctx, model,
		genai.Text(systemPrompt+"\n\n"+prompt), nil)
	if err != nil {
		return "", errors.Wrap(err, "generate content")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty summary")
	}
	return text, nil
}
