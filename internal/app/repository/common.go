package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mp3player/internal/app/errors"
	"mp3player/internal/app/model"
)

// DefaultQueryLimit caps list queries when the caller passes no limit.
const DefaultQueryLimit = 50

// PlaceholderFunc generates parameter placeholders for different SQL dialects.
type PlaceholderFunc func(n int) string

// CommonDB implements TranscriptDAO over database/sql. The SQLite and
// PostgreSQL packages embed it and only differ in how they open the
// connection and create the schema.
type CommonDB struct {
	db          *sql.DB
	driverName  string
	placeholder PlaceholderFunc
	returningID bool
	likeOp      string
}

// NewCommonDB wires the dialect knobs for the given driver.
func NewCommonDB(db *sql.DB, driverName string) *CommonDB {
	c := &CommonDB{db: db, driverName: driverName}
	switch driverName {
	case "postgres":
		c.placeholder = func(n int) string { return fmt.Sprintf("$%d", n) }
		// lib/pq does not support LastInsertId, so inserts go through
		// RETURNING id instead.
		c.returningID = true
		c.likeOp = "ILIKE"
	default:
		c.placeholder = func(n int) string { return "?" }
		c.likeOp = "LIKE"
	}
	return c
}

// DB exposes the underlying connection for packages that run their own
// queries against the same store, like the vector search index.
func (c *CommonDB) DB() *sql.DB {
	return c.db
}

// DriverName reports which SQL driver opened the connection.
func (c *CommonDB) DriverName() string {
	return c.driverName
}

func (c *CommonDB) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

const transcriptColumns = `id, file_name, file_path, file_hash, audio_duration,
		segment_start, segment_end, provider, language, model, transcript,
		created_at, has_error, error_message`

func (c *CommonDB) Record(ctx context.Context, t *model.Transcript) (int64, error) {
	if t == nil {
		return 0, errors.RequiredField("transcript")
	}
	if t.FileName == "" {
		return 0, errors.RequiredField("file_name")
	}

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	params := make([]string, 13)
	for i := range params {
		params[i] = c.placeholder(i + 1)
	}
	query := fmt.Sprintf(`INSERT INTO transcripts (
			file_name, file_path, file_hash, audio_duration,
			segment_start, segment_end, provider, language, model,
			transcript, created_at, has_error, error_message
		) VALUES (%s)`, strings.Join(params, ", "))

	args := []interface{}{
		t.FileName, t.FilePath, t.FileHash, t.AudioDuration,
		t.SegmentStart, t.SegmentEnd, t.Provider, t.Language, t.Model,
		t.Text, createdAt, t.HasError, t.ErrorMessage,
	}

	if c.returningID {
		var id int64
		if err := c.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, errors.Wrap(err, "insert transcript")
		}
		return id, nil
	}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "insert transcript")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "read inserted id")
	}
	return id, nil
}

func (c *CommonDB) CheckIfFileProcessed(ctx context.Context, fileName string) (int, error) {
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM transcripts
		 WHERE file_name = %s AND has_error = 0 AND deleted_at IS NULL`,
		c.placeholder(1))

	var count int
	if err := c.db.QueryRowContext(ctx, query, fileName).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count transcripts")
	}
	return count, nil
}

func (c *CommonDB) GetAllByFile(ctx context.Context, fileName string) ([]model.Transcript, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM transcripts
		 WHERE file_name = %s AND has_error = 0 AND deleted_at IS NULL
		 ORDER BY segment_start, segment_end, created_at`,
		transcriptColumns, c.placeholder(1))

	return c.queryTranscripts(ctx, query, fileName)
}

func (c *CommonDB) Search(ctx context.Context, fileName, query string, limit int) ([]model.Transcript, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.RequiredField("query")
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	n := 0
	next := func() string {
		n++
		return c.placeholder(n)
	}

	clauses := []string{"has_error = 0", "deleted_at IS NULL"}
	args := make([]interface{}, 0, 3)

	clauses = append(clauses, fmt.Sprintf("transcript %s %s", c.likeOp, next()))
	args = append(args, "%"+query+"%")

	if fileName != "" {
		clauses = append(clauses, fmt.Sprintf("file_name = %s", next()))
		args = append(args, fileName)
	}

	sqlStr := fmt.Sprintf(
		`SELECT %s FROM transcripts WHERE %s ORDER BY created_at DESC LIMIT %s`,
		transcriptColumns, strings.Join(clauses, " AND "), next())
	args = append(args, limit)

	return c.queryTranscripts(ctx, sqlStr, args...)
}

func (c *CommonDB) GetByProvider(ctx context.Context, providerName string, limit int) ([]model.Transcript, error) {
	if providerName == "" {
		return nil, errors.RequiredField("provider")
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := fmt.Sprintf(
		`SELECT %s FROM transcripts
		 WHERE provider = %s AND has_error = 0 AND deleted_at IS NULL
		 ORDER BY created_at DESC LIMIT %s`,
		transcriptColumns, c.placeholder(1), c.placeholder(2))

	return c.queryTranscripts(ctx, query, providerName, limit)
}

func (c *CommonDB) GetRecent(ctx context.Context, limit int) ([]model.Transcript, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := fmt.Sprintf(
		`SELECT %s FROM transcripts
		 WHERE has_error = 0 AND deleted_at IS NULL
		 ORDER BY created_at DESC LIMIT %s`,
		transcriptColumns, c.placeholder(1))

	return c.queryTranscripts(ctx, query, limit)
}

func (c *CommonDB) Stats(ctx context.Context) (*model.TranscriptStats, error) {
	query := `SELECT COUNT(*),
			COUNT(DISTINCT file_name),
			COALESCE(SUM(CASE WHEN has_error = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN has_error = 0 THEN audio_duration ELSE 0 END), 0)
		FROM transcripts WHERE deleted_at IS NULL`

	var stats model.TranscriptStats
	err := c.db.QueryRowContext(ctx, query).Scan(
		&stats.Total, &stats.Files, &stats.Errors, &stats.AudioSeconds)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate stats")
	}
	return &stats, nil
}

func (c *CommonDB) SoftDelete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(
		`UPDATE transcripts SET deleted_at = %s WHERE id = %s AND deleted_at IS NULL`,
		c.placeholder(1), c.placeholder(2))

	res, err := c.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return errors.Wrap(err, "soft delete transcript")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "soft delete transcript")
	}
	if affected == 0 {
		return errors.NotFound("transcript", fmt.Sprintf("%d", id))
	}
	return nil
}

func (c *CommonDB) queryTranscripts(ctx context.Context, query string, args ...interface{}) ([]model.Transcript, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query transcripts")
	}
	defer rows.Close()

	transcripts := make([]model.Transcript, 0)
	for rows.Next() {
		var t model.Transcript
		err = rows.Scan(
			&t.ID, &t.FileName, &t.FilePath, &t.FileHash, &t.AudioDuration,
			&t.SegmentStart, &t.SegmentEnd, &t.Provider, &t.Language, &t.Model,
			&t.Text, &t.CreatedAt, &t.HasError, &t.ErrorMessage)
		if err != nil {
			return nil, errors.Wrap(err, "scan transcript")
		}
		transcripts = append(transcripts, t)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate transcripts")
	}
	return transcripts, nil
}
