package search

import (
	"context"

	"go.uber.org/zap"

	"mp3player/internal/app/api/openai/embedding"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/model"
	"mp3player/internal/app/repository"
)

// EmbedFunc turns texts into embedding vectors. Production wiring uses
// the OpenAI embedding client; tests inject a stub.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Searcher answers transcript queries. Plain substring search always
// works; semantic search additionally needs a vector index.
type Searcher struct {
	dao   repository.TranscriptDAO
	index *VectorIndex
	embed EmbedFunc
	log   *zap.Logger
}

// New builds a Searcher. index may be nil, which disables semantic
// queries; a nil embed selects the OpenAI embedding client.
func New(dao repository.TranscriptDAO, index *VectorIndex, embed EmbedFunc, log *zap.Logger) *Searcher {
	if embed == nil {
		embed = embedding.EmbedBatch
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Searcher{dao: dao, index: index, embed: embed, log: log}
}

// SemanticAvailable reports whether semantic queries can be served.
func (s *Searcher) SemanticAvailable() bool {
	return s.index != nil
}

// Plain runs a case-insensitive substring search over the library.
func (s *Searcher) Plain(ctx context.Context, fileName, query string, limit int) ([]model.Transcript, error) {
	return s.dao.Search(ctx, fileName, query, limit)
}

// Semantic embeds the query and returns the nearest stored
// transcripts.
func (s *Searcher) Semantic(ctx context.Context, query string, limit int) ([]Match, error) {
	if s.index == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "semantic search requires DB_TYPE=postgres with the pgvector extension")
	}
	if query == "" {
		return nil, errors.RequiredField("query")
	}
	if limit < 1 {
		limit = 10
	}

	vectors, err := s.embed(ctx, []string{query})
	if err != nil {
		return nil, errors.Wrap(err, "embed query")
	}
	return s.index.Nearest(ctx, vectors[0], limit)
}

// IndexResult summarizes one indexing run.
type IndexResult struct {
	Indexed int
	Failed  int
}

// IndexMissing embeds up to limit transcripts that lack embeddings and
// stores the vectors, in batches of batchSize.
func (s *Searcher) IndexMissing(ctx context.Context, limit, batchSize int) (*IndexResult, error) {
	if s.index == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "indexing requires DB_TYPE=postgres with the pgvector extension")
	}
	if batchSize < 1 {
		batchSize = 16
	}
	if limit < 1 {
		limit = 1000
	}

	pending, err := s.index.Missing(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &IndexResult{}
	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}

		vectors, err := s.embed(ctx, texts)
		if err != nil {
			s.log.Warn("embedding batch failed",
				zap.Int("size", len(texts)), zap.Error(err))
			result.Failed += len(texts)
			continue
		}

		for i, p := range batch {
			if err := s.index.Store(ctx, p.ID, string(embedding.Model), vectors[i]); err != nil {
				s.log.Warn("storing embedding failed",
					zap.Int64("transcript_id", p.ID), zap.Error(err))
				result.Failed++
				continue
			}
			result.Indexed++
		}
	}

	s.log.Info("embedding index updated",
		zap.Int("indexed", result.Indexed),
		zap.Int("failed", result.Failed))
	return result, nil
}
