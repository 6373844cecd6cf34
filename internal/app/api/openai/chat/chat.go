package chat

import (
	"context"

	"github.com/sashabaranov/go-openai"

	client "mp3player/internal/app/api/openai"
	"mp3player/internal/app/errors"
)

// DefaultModel is used when the caller does not pick one.
const DefaultModel = openai.GPT4oMini

// Complete sends a system/user prompt pair and returns the first
// choice's content.
func Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	c, err := client.GetClient()
	if err != nil {
		return "", err
	}
	return CompleteWith(ctx, c, model, systemPrompt, userPrompt)
}

// CompleteWith is Complete against an explicit client.
func CompleteWith(ctx context.Context, c *openai.Client, model, systemPrompt, userPrompt string) (string, error) {
	if model == "" {
		model = DefaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
