package migrate

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sourceColumns = []string{
	"id", "file_name", "file_path", "file_hash", "audio_duration",
	"segment_start", "segment_end", "provider", "language", "model",
	"transcript", "created_at", "has_error", "error_message", "deleted_at",
}

func sourceRow(id int64, fileName string) []interface{} {
	return []interface{}{
		id, fileName, "/data/files/" + fileName, "", 12.0,
		0.0, 0.0, "whisper_cpp", "en", "",
		"migrated text", time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC), 0, "", nil,
	}
}

func TestMigrator_Run(t *testing.T) {
	source, sourceMock, err := sqlmock.New()
	require.NoError(t, err)
	defer source.Close()

	dest, destMock, err := sqlmock.New()
	require.NoError(t, err)
	defer dest.Close()

	checkpoint := filepath.Join(t.TempDir(), "last_id.txt")

	rows := sqlmock.NewRows(sourceColumns)
	rows.AddRow(sourceRow(1, "a.mp3")...)
	rows.AddRow(sourceRow(2, "b.mp3")...)
	sourceMock.ExpectQuery(regexp.QuoteMeta("WHERE id > ? ORDER BY id LIMIT ?")).
		WithArgs(int64(0), BatchSize).
		WillReturnRows(rows)

	destMock.ExpectBegin()
	prep := destMock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO transcripts (id,"))
	prep.ExpectExec().
		WithArgs(int64(1), "a.mp3", "/data/files/a.mp3", "", 12.0,
			0.0, 0.0, "whisper_cpp", "en", "",
			"migrated text", sqlmock.AnyArg(), 0, "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(int64(2), "b.mp3", "/data/files/b.mp3", "", 12.0,
			0.0, 0.0, "whisper_cpp", "en", "",
			"migrated text", sqlmock.AnyArg(), 0, "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	destMock.ExpectCommit()
	destMock.ExpectExec(regexp.QuoteMeta("setval")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	m := New(source, dest, checkpoint, nil)
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Migrated)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, int64(2), result.LastID)
	assert.True(t, result.Done)

	data, err := os.ReadFile(checkpoint)
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))

	assert.NoError(t, sourceMock.ExpectationsWereMet())
	assert.NoError(t, destMock.ExpectationsWereMet())
}

func TestMigrator_SkipsInvalidRows(t *testing.T) {
	source, sourceMock, err := sqlmock.New()
	require.NoError(t, err)
	defer source.Close()

	dest, destMock, err := sqlmock.New()
	require.NoError(t, err)
	defer dest.Close()

	rows := sqlmock.NewRows(sourceColumns)
	rows.AddRow(sourceRow(5, "")...)
	rows.AddRow(sourceRow(6, "kept.mp3")...)
	sourceMock.ExpectQuery(regexp.QuoteMeta("WHERE id > ?")).
		WithArgs(int64(0), BatchSize).
		WillReturnRows(rows)

	destMock.ExpectBegin()
	prep := destMock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO transcripts"))
	prep.ExpectExec().
		WithArgs(int64(6), "kept.mp3", "/data/files/kept.mp3", "", 12.0,
			0.0, 0.0, "whisper_cpp", "en", "",
			"migrated text", sqlmock.AnyArg(), 0, "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	destMock.ExpectCommit()
	destMock.ExpectExec(regexp.QuoteMeta("setval")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	m := New(source, dest, "", nil)
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Migrated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, int64(6), result.LastID)

	assert.NoError(t, sourceMock.ExpectationsWereMet())
	assert.NoError(t, destMock.ExpectationsWereMet())
}

func TestMigrator_ResumesFromCheckpoint(t *testing.T) {
	source, sourceMock, err := sqlmock.New()
	require.NoError(t, err)
	defer source.Close()

	dest, destMock, err := sqlmock.New()
	require.NoError(t, err)
	defer dest.Close()

	checkpoint := filepath.Join(t.TempDir(), "last_id.txt")
	require.NoError(t, os.WriteFile(checkpoint, []byte("41\n"), 0o644))

	sourceMock.ExpectQuery(regexp.QuoteMeta("WHERE id > ?")).
		WithArgs(int64(41), BatchSize).
		WillReturnRows(sqlmock.NewRows(sourceColumns))

	destMock.ExpectBegin()
	destMock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO transcripts"))
	destMock.ExpectCommit()

	m := New(source, dest, checkpoint, nil)
	result, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Migrated)
	assert.Equal(t, int64(41), result.LastID)
	assert.True(t, result.Done)

	assert.NoError(t, sourceMock.ExpectationsWereMet())
	assert.NoError(t, destMock.ExpectationsWereMet())
}
