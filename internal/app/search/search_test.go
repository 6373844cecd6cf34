package search

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp3player/internal/app/testutil"
)

func TestVectorLiteralRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 0, 3}
	literal := VectorLiteral(vec)
	assert.Equal(t, "[0.5,-1.25,0,3]", literal)

	parsed, err := ParseVectorLiteral(literal)
	require.NoError(t, err)
	assert.Equal(t, vec, parsed)
}

func TestParseVectorLiteralErrors(t *testing.T) {
	for _, s := range []string{"", "0.5,1", "[0.5,x]", "{0.5}"} {
		_, err := ParseVectorLiteral(s)
		assert.Error(t, err, s)
	}

	empty, err := ParseVectorLiteral("[]")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func newMockIndex(t *testing.T) (*VectorIndex, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").
		WillReturnResult(sqlmock.NewResult(0, 0))

	index, err := NewVectorIndex(db)
	require.NoError(t, err)
	return index, mock
}

func TestVectorIndexStore(t *testing.T) {
	index, mock := newMockIndex(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transcript_embeddings")).
		WithArgs(int64(7), "text-embedding-ada-002", "[1,2]").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := index.Store(context.Background(), 7, "text-embedding-ada-002", []float32{1, 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVectorIndexMissing(t *testing.T) {
	index, mock := newMockIndex(t)

	mock.ExpectQuery("SELECT t.id, t.transcript FROM transcripts t").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "transcript"}).
			AddRow(1, "first text").
			AddRow(3, "third text"))

	pending, err := index.Missing(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(1), pending[0].ID)
	assert.Equal(t, "third text", pending[1].Text)
}

func TestVectorIndexNearest(t *testing.T) {
	index, mock := newMockIndex(t)
	now := time.Now()

	mock.ExpectQuery("SELECT t.id, t.file_name").
		WithArgs("[1,0]", 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "file_name", "file_path", "audio_duration",
			"segment_start", "segment_end", "provider", "language",
			"model", "transcript", "created_at", "similarity",
		}).AddRow(1, "lesson.mp3", "files/lesson.mp3", 30.0,
			0.0, 0.0, "openai", "en", "whisper-1", "hello", now, 0.93))

	matches, err := index.Nearest(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "lesson.mp3", matches[0].Transcript.FileName)
	assert.InDelta(t, 0.93, matches[0].Similarity, 1e-9)
}

func stubEmbed(vectors map[string][]float32) EmbedFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			if v, ok := vectors[text]; ok {
				out[i] = v
			} else {
				out[i] = []float32{0, 0}
			}
		}
		return out, nil
	}
}

func TestSemanticWithoutIndex(t *testing.T) {
	s := New(testutil.NewMemoryDAO(), nil, stubEmbed(nil), nil)
	assert.False(t, s.SemanticAvailable())

	_, err := s.Semantic(context.Background(), "query", 5)
	assert.Error(t, err)
}

func TestSemanticQuery(t *testing.T) {
	index, mock := newMockIndex(t)
	s := New(testutil.NewMemoryDAO(), index, stubEmbed(map[string][]float32{
		"greetings": {1, 0},
	}), nil)
	require.True(t, s.SemanticAvailable())

	mock.ExpectQuery("SELECT t.id, t.file_name").
		WithArgs("[1,0]", 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "file_name", "file_path", "audio_duration",
			"segment_start", "segment_end", "provider", "language",
			"model", "transcript", "created_at", "similarity",
		}))

	_, err := s.Semantic(context.Background(), "greetings", 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndexMissing(t *testing.T) {
	index, mock := newMockIndex(t)
	s := New(testutil.NewMemoryDAO(), index, stubEmbed(map[string][]float32{
		"first":  {1, 0},
		"second": {0, 1},
	}), nil)

	mock.ExpectQuery("SELECT t.id, t.transcript FROM transcripts t").
		WillReturnRows(sqlmock.NewRows([]string{"id", "transcript"}).
			AddRow(1, "first").
			AddRow(2, "second"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transcript_embeddings")).
		WithArgs(int64(1), sqlmock.AnyArg(), "[1,0]").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transcript_embeddings")).
		WithArgs(int64(2), sqlmock.AnyArg(), "[0,1]").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := s.IndexMissing(context.Background(), 100, 16)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	assert.Equal(t, 0, result.Failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
