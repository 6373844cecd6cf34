package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp3player/internal/app/model"
)

var transcriptRowColumns = []string{
	"id", "file_name", "file_path", "file_hash", "audio_duration",
	"segment_start", "segment_end", "provider", "language", "model",
	"transcript", "created_at", "has_error", "error_message",
}

func sampleRow(id int, fileName, text string) []driverValue {
	return []driverValue{
		id, fileName, "/data/files/" + fileName, "", 42.5,
		0.0, 0.0, "faster_whisper", "en", "medium",
		text, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), 0, "",
	}
}

type driverValue = interface{}

func addRows(rows *sqlmock.Rows, values ...[]driverValue) *sqlmock.Rows {
	for _, v := range values {
		rows.AddRow(v...)
	}
	return rows
}

func TestCommonDB_Record_SQLite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	common := NewCommonDB(db, "sqlite3")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transcripts (")).
		WithArgs("lecture.mp3", "/data/files/lecture.mp3", "abc123", 42.5,
			0.0, 0.0, "faster_whisper", "en", "medium",
			"hello world", sqlmock.AnyArg(), 0, "").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := common.Record(context.Background(), &model.Transcript{
		FileName:      "lecture.mp3",
		FilePath:      "/data/files/lecture.mp3",
		FileHash:      "abc123",
		AudioDuration: 42.5,
		Provider:      "faster_whisper",
		Language:      "en",
		Model:         "medium",
		Text:          "hello world",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommonDB_Record_PostgresReturningID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	common := NewCommonDB(db, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING id")).
		WithArgs("lecture.mp3", "", "", 10.0,
			2.5, 8.0, "openai", "en", "whisper-1",
			"short segment", sqlmock.AnyArg(), 0, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, err := common.Record(context.Background(), &model.Transcript{
		FileName:      "lecture.mp3",
		AudioDuration: 10.0,
		SegmentStart:  2.5,
		SegmentEnd:    8.0,
		Provider:      "openai",
		Language:      "en",
		Model:         "whisper-1",
		Text:          "short segment",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommonDB_Record_Validation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	common := NewCommonDB(db, "sqlite3")

	_, err = common.Record(context.Background(), nil)
	assert.Error(t, err)

	_, err = common.Record(context.Background(), &model.Transcript{Text: "no file"})
	assert.ErrorContains(t, err, "file_name")
}

func TestCommonDB_CheckIfFileProcessed(t *testing.T) {
	tests := []struct {
		name       string
		driverName string
		query      string
		count      int
	}{
		{
			name:       "sqlite_dialect",
			driverName: "sqlite3",
			query:      "SELECT COUNT(*) FROM transcripts WHERE file_name = ? AND has_error = 0 AND deleted_at IS NULL",
			count:      2,
		},
		{
			name:       "postgres_dialect",
			driverName: "postgres",
			query:      "SELECT COUNT(*) FROM transcripts WHERE file_name = $1 AND has_error = 0 AND deleted_at IS NULL",
			count:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			common := NewCommonDB(db, tt.driverName)

			mock.ExpectQuery(regexp.QuoteMeta(tt.query)).
				WithArgs("lecture.mp3").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

			count, err := common.CheckIfFileProcessed(context.Background(), "lecture.mp3")
			require.NoError(t, err)
			assert.Equal(t, tt.count, count)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCommonDB_GetAllByFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	common := NewCommonDB(db, "sqlite3")

	rows := addRows(sqlmock.NewRows(transcriptRowColumns),
		sampleRow(1, "lecture.mp3", "whole file text"),
		sampleRow(2, "lecture.mp3", "first segment"),
	)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY segment_start, segment_end, created_at")).
		WithArgs("lecture.mp3").
		WillReturnRows(rows)

	transcripts, err := common.GetAllByFile(context.Background(), "lecture.mp3")
	require.NoError(t, err)
	require.Len(t, transcripts, 2)
	assert.Equal(t, "whole file text", transcripts[0].Text)
	assert.Equal(t, "faster_whisper", transcripts[0].Provider)
	assert.Equal(t, 42.5, transcripts[0].AudioDuration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommonDB_Search(t *testing.T) {
	t.Run("library_wide_uses_like_pattern", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		common := NewCommonDB(db, "sqlite3")

		mock.ExpectQuery(regexp.QuoteMeta("transcript LIKE ?")).
			WithArgs("%hello%", 10).
			WillReturnRows(addRows(sqlmock.NewRows(transcriptRowColumns),
				sampleRow(1, "lecture.mp3", "hello world")))

		results, err := common.Search(context.Background(), "", "hello", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("postgres_uses_ilike", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		common := NewCommonDB(db, "postgres")

		mock.ExpectQuery(regexp.QuoteMeta("transcript ILIKE $1")).
			WithArgs("%Hello%", 10).
			WillReturnRows(sqlmock.NewRows(transcriptRowColumns))

		_, err = common.Search(context.Background(), "", "Hello", 10)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("file_scoped_adds_filter", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		common := NewCommonDB(db, "sqlite3")

		mock.ExpectQuery(regexp.QuoteMeta("file_name = ?")).
			WithArgs("%hello%", "lecture.mp3", DefaultQueryLimit).
			WillReturnRows(sqlmock.NewRows(transcriptRowColumns))

		_, err = common.Search(context.Background(), "lecture.mp3", "hello", 0)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty_query_rejected", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		common := NewCommonDB(db, "sqlite3")

		_, err = common.Search(context.Background(), "", "   ", 10)
		assert.ErrorContains(t, err, "query")
	})
}

func TestCommonDB_GetByProvider(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	common := NewCommonDB(db, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider = $1")).
		WithArgs("faster_whisper", 5).
		WillReturnRows(addRows(sqlmock.NewRows(transcriptRowColumns),
			sampleRow(3, "talk.mp3", "transcribed locally")))

	results, err := common.GetByProvider(context.Background(), "faster_whisper", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "talk.mp3", results[0].FileName)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = common.GetByProvider(context.Background(), "", 5)
	assert.ErrorContains(t, err, "provider")
}

func TestCommonDB_GetRecent_DefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	common := NewCommonDB(db, "sqlite3")

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT ?")).
		WithArgs(DefaultQueryLimit).
		WillReturnRows(sqlmock.NewRows(transcriptRowColumns))

	results, err := common.GetRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommonDB_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	common := NewCommonDB(db, "sqlite3")

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT file_name)")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "files", "errors", "audio_seconds"}).
			AddRow(12, 4, 2, 3600.5))

	stats, err := common.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Total)
	assert.Equal(t, 4, stats.Files)
	assert.Equal(t, 2, stats.Errors)
	assert.Equal(t, 3600.5, stats.AudioSeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommonDB_SoftDelete(t *testing.T) {
	t.Run("marks_row_deleted", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		common := NewCommonDB(db, "sqlite3")

		mock.ExpectExec(regexp.QuoteMeta("UPDATE transcripts SET deleted_at = ?")).
			WithArgs(sqlmock.AnyArg(), int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = common.SoftDelete(context.Background(), 9)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing_row_reported", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		common := NewCommonDB(db, "sqlite3")

		mock.ExpectExec(regexp.QuoteMeta("UPDATE transcripts SET deleted_at = ?")).
			WithArgs(sqlmock.AnyArg(), int64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = common.SoftDelete(context.Background(), 404)
		assert.ErrorContains(t, err, "not found")
	})
}

func TestCommonDB_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	common := NewCommonDB(db, "sqlite3")

	mock.ExpectClose()
	assert.NoError(t, common.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
