package pg

import (
	"database/sql"

	_ "github.com/lib/pq"

	"mp3player/internal/app/errors"
	"mp3player/internal/app/repository"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS transcripts (
	id SERIAL PRIMARY KEY,
	file_name TEXT NOT NULL,
	file_path TEXT NOT NULL DEFAULT '',
	file_hash TEXT NOT NULL DEFAULT '',
	audio_duration DOUBLE PRECISION NOT NULL DEFAULT 0,
	segment_start DOUBLE PRECISION NOT NULL DEFAULT 0,
	segment_end DOUBLE PRECISION NOT NULL DEFAULT 0,
	provider TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	transcript TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	has_error INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	deleted_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_transcripts_file_name ON transcripts(file_name);
CREATE INDEX IF NOT EXISTS idx_transcripts_provider ON transcripts(provider);
CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at);
`

// DB is the PostgreSQL-backed transcript library, selected with
// DB_TYPE=postgres. Required when the vector search index is in use.
type DB struct {
	*repository.CommonDB
}

var _ repository.TranscriptDAO = (*DB)(nil)

// New connects to PostgreSQL with a lib/pq connection string and ensures
// the schema exists.
func New(connectionString string) (*DB, error) {
	if connectionString == "" {
		return nil, errors.RequiredField("connection string")
	}

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrDatabaseConnection.Error())
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create transcripts table")
	}

	return &DB{CommonDB: repository.NewCommonDB(db, "postgres")}, nil
}
