package embedding

import (
	"context"

	"github.com/sashabaranov/go-openai"

	client "mp3player/internal/app/api/openai"
	"mp3player/internal/app/errors"
)

// Model is the embedding model used for transcript search. Its vectors
// have 1536 dimensions, which the pgvector schema depends on.
const Model = openai.SmallEmbedding3

// Dimensions is the vector size produced by Model.
const Dimensions = 1536

// Embed returns the embedding vector for one text.
func Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns embedding vectors for multiple texts in one call,
// in input order.
func EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.RequiredField("texts")
	}

	c, err := client.GetClient()
	if err != nil {
		return nil, err
	}
	return EmbedBatchWith(ctx, c, texts)
}

// EmbedBatchWith is EmbedBatch against an explicit client.
func EmbedBatchWith(ctx context.Context, c *openai.Client, texts []string) ([][]float32, error) {
	resp, err := c.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: Model,
		Input: texts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create embeddings")
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Newf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
