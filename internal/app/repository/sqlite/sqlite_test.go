package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp3player/internal/app/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "data", "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_CreatesDatabaseAndParentDir(t *testing.T) {
	db := newTestDB(t)

	var name string
	err := db.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='transcripts'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "transcripts", name)
}

func TestNew_EmptyPathRejected(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestLibraryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.Record(ctx, &model.Transcript{
		FileName:      "lecture.mp3",
		FilePath:      "/data/files/lecture.mp3",
		AudioDuration: 42.5,
		Provider:      "faster_whisper",
		Language:      "en",
		Model:         "medium",
		Text:          "the quick brown fox",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	segID, err := db.Record(ctx, &model.Transcript{
		FileName:      "lecture.mp3",
		AudioDuration: 5.5,
		SegmentStart:  10.0,
		SegmentEnd:    15.5,
		Provider:      "faster_whisper",
		Text:          "jumps over the lazy dog",
	})
	require.NoError(t, err)
	assert.Greater(t, segID, id)

	count, err := db.CheckIfFileProcessed(ctx, "lecture.mp3")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = db.CheckIfFileProcessed(ctx, "unknown.mp3")
	require.NoError(t, err)
	assert.Zero(t, count)

	all, err := db.GetAllByFile(ctx, "lecture.mp3")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].IsSegment())
	assert.True(t, all[1].IsSegment())
	assert.Equal(t, 10.0, all[1].SegmentStart)

	found, err := db.Search(ctx, "", "LAZY", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "jumps over the lazy dog", found[0].Text)

	found, err = db.Search(ctx, "other.mp3", "lazy", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	byProvider, err := db.GetByProvider(ctx, "faster_whisper", 10)
	require.NoError(t, err)
	assert.Len(t, byProvider, 2)

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Files)
	assert.Zero(t, stats.Errors)
	assert.InDelta(t, 48.0, stats.AudioSeconds, 0.01)
}

func TestSoftDeleteHidesRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.Record(ctx, &model.Transcript{
		FileName: "scrap.mp3",
		Text:     "disposable",
	})
	require.NoError(t, err)

	require.NoError(t, db.SoftDelete(ctx, id))

	count, err := db.CheckIfFileProcessed(ctx, "scrap.mp3")
	require.NoError(t, err)
	assert.Zero(t, count)

	err = db.SoftDelete(ctx, id)
	assert.ErrorContains(t, err, "not found")
}

func TestErrorRowsExcludedFromReadsButCounted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.Record(ctx, &model.Transcript{
		FileName:     "broken.mp3",
		HasError:     1,
		ErrorMessage: "provider timeout",
	})
	require.NoError(t, err)

	count, err := db.CheckIfFileProcessed(ctx, "broken.mp3")
	require.NoError(t, err)
	assert.Zero(t, count)

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Errors)
	assert.Zero(t, stats.AudioSeconds)
}
