// Package search finds transcripts: plain substring search through the
// library DAO works everywhere, semantic search over OpenAI embeddings
// needs PostgreSQL with the pgvector extension.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"mp3player/internal/app/errors"
	"mp3player/internal/app/model"
)

const createIndexSQL = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS transcript_embeddings (
	transcript_id BIGINT PRIMARY KEY,
	model TEXT NOT NULL,
	embedding vector(1536) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// VectorIndex stores transcript embeddings in pgvector and answers
// nearest-neighbour queries.
type VectorIndex struct {
	db *sql.DB
}

// NewVectorIndex ensures the embeddings table (and the vector
// extension) exists.
func NewVectorIndex(db *sql.DB) (*VectorIndex, error) {
	if _, err := db.Exec(createIndexSQL); err != nil {
		return nil, errors.Wrap(err, "create embeddings table")
	}
	return &VectorIndex{db: db}, nil
}

// Store upserts one transcript's embedding.
func (x *VectorIndex) Store(ctx context.Context, transcriptID int64, embeddingModel string, embedding []float32) error {
	_, err := x.db.ExecContext(ctx, `
		INSERT INTO transcript_embeddings (transcript_id, model, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (transcript_id)
		DO UPDATE SET model = EXCLUDED.model, embedding = EXCLUDED.embedding, created_at = now()`,
		transcriptID, embeddingModel, VectorLiteral(embedding))
	if err != nil {
		return errors.Wrapf(err, "store embedding for transcript %d", transcriptID)
	}
	return nil
}

// Pending is a transcript that has text but no embedding yet.
type Pending struct {
	ID   int64
	Text string
}

// Missing returns transcripts without embeddings, oldest first.
func (x *VectorIndex) Missing(ctx context.Context, limit int) ([]Pending, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT t.id, t.transcript FROM transcripts t
		LEFT JOIN transcript_embeddings e ON e.transcript_id = t.id
		WHERE e.transcript_id IS NULL
		  AND t.transcript <> ''
		  AND t.has_error = 0
		  AND t.deleted_at IS NULL
		ORDER BY t.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query transcripts without embeddings")
	}
	defer rows.Close()

	var pending []Pending
	for rows.Next() {
		var p Pending
		if err := rows.Scan(&p.ID, &p.Text); err != nil {
			return nil, errors.Wrap(err, "scan pending transcript")
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// Match is one semantic search hit.
type Match struct {
	Transcript model.Transcript
	// Similarity is 1 - cosine distance, higher is closer.
	Similarity float64
}

// Nearest returns the transcripts closest to the query embedding by
// cosine distance.
func (x *VectorIndex) Nearest(ctx context.Context, embedding []float32, limit int) ([]Match, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT t.id, t.file_name, t.file_path, t.audio_duration,
		       t.segment_start, t.segment_end, t.provider, t.language,
		       t.model, t.transcript, t.created_at,
		       1 - (e.embedding <=> $1) AS similarity
		FROM transcript_embeddings e
		JOIN transcripts t ON t.id = e.transcript_id
		WHERE t.deleted_at IS NULL
		ORDER BY e.embedding <=> $1
		LIMIT $2`, VectorLiteral(embedding), limit)
	if err != nil {
		return nil, errors.Wrap(err, "vector similarity query")
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		t := &m.Transcript
		if err := rows.Scan(&t.ID, &t.FileName, &t.FilePath, &t.AudioDuration,
			&t.SegmentStart, &t.SegmentEnd, &t.Provider, &t.Language,
			&t.Model, &t.Text, &t.CreatedAt, &m.Similarity); err != nil {
			return nil, errors.Wrap(err, "scan similarity row")
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// VectorLiteral renders an embedding in pgvector's input syntax:
// [0.1,0.2,...]
func VectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVectorLiteral is the inverse of VectorLiteral.
func ParseVectorLiteral(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, errors.InvalidField("vector", "expected [v1,v2,...]")
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return []float32{}, nil
	}
	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, errors.InvalidField("vector", fmt.Sprintf("bad component %q", p))
		}
		out[i] = float32(v)
	}
	return out, nil
}
