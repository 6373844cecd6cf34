package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"mp3player/internal/app/errors"
	"mp3player/internal/app/repository"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS transcripts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_name TEXT NOT NULL,
	file_path TEXT NOT NULL DEFAULT '',
	file_hash TEXT NOT NULL DEFAULT '',
	audio_duration REAL NOT NULL DEFAULT 0,
	segment_start REAL NOT NULL DEFAULT 0,
	segment_end REAL NOT NULL DEFAULT 0,
	provider TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	transcript TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	has_error INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	deleted_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_transcripts_file_name ON transcripts(file_name);
CREATE INDEX IF NOT EXISTS idx_transcripts_provider ON transcripts(provider);
CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at);
`

// DB is the SQLite-backed transcript library, the default store.
type DB struct {
	*repository.CommonDB
}

var _ repository.TranscriptDAO = (*DB)(nil)

// New opens (creating if needed) the library database at dbPath and
// ensures the schema exists.
func New(dbPath string) (*DB, error) {
	if dbPath == "" {
		return nil, errors.RequiredField("database path")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	// cache=shared plus a single connection avoids SQLITE_BUSY under
	// concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create transcripts table")
	}

	return &DB{CommonDB: repository.NewCommonDB(db, "sqlite3")}, nil
}
