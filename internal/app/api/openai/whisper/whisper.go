package whisper

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"mp3player/internal/app/errors"
)

// RemoteTranscriber transcribes audio through the OpenAI Whisper API.
type RemoteTranscriber struct {
	client *openai.Client
}

// NewRemoteTranscriber creates a transcriber over an existing client.
func NewRemoteTranscriber(client *openai.Client) *RemoteTranscriber {
	return &RemoteTranscriber{client: client}
}

// Transcript uploads the file and returns the transcript text.
func (rt *RemoteTranscriber) Transcript(inputFilePath string) (string, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: inputFilePath,
	}
	resp, err := rt.client.CreateTranscription(context.Background(), req)
	if err != nil {
		return "", errors.Wrap(err, "create transcription")
	}
	return resp.Text, nil
}
