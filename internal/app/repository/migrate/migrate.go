// Package migrate copies transcript rows from the SQLite library into
// PostgreSQL. Progress is checkpointed by last migrated id, so an
// interrupted run resumes where it stopped instead of duplicating rows.
package migrate

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mp3player/internal/app/errors"
)

// BatchSize bounds how many rows one Run call moves.
const BatchSize = 1000

// Migrator moves rows between two already-open connections.
type Migrator struct {
	source         *sql.DB
	dest           *sql.DB
	checkpointPath string
	log            *zap.Logger
}

// Result summarizes one migration batch.
type Result struct {
	Migrated int
	Skipped  int
	LastID   int64
	Done     bool
}

func New(source, dest *sql.DB, checkpointPath string, log *zap.Logger) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{
		source:         source,
		dest:           dest,
		checkpointPath: checkpointPath,
		log:            log,
	}
}

// Run migrates the next batch of rows after the checkpoint. Call it in a
// loop until Result.Done.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	lastID := m.loadCheckpoint()

	rows, err := m.source.QueryContext(ctx,
		`SELECT id, file_name, file_path, file_hash, audio_duration,
			segment_start, segment_end, provider, language, model,
			transcript, created_at, has_error, error_message, deleted_at
		 FROM transcripts WHERE id > ? ORDER BY id LIMIT ?`,
		lastID, BatchSize)
	if err != nil {
		return nil, errors.Wrap(err, "read source rows")
	}
	defer rows.Close()

	tx, err := m.dest.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin destination transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transcripts (id, file_name, file_path, file_hash,
			audio_duration, segment_start, segment_end, provider, language,
			model, transcript, created_at, has_error, error_message, deleted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare destination insert")
	}
	defer stmt.Close()

	result := &Result{LastID: lastID}
	for rows.Next() {
		var (
			id                         int64
			fileName, filePath, hash   string
			provider, language, mdl    string
			transcript, errMsg         string
			duration, segStart, segEnd float64
			createdAt                  time.Time
			hasError                   int
			deletedAt                  sql.NullTime
		)
		err = rows.Scan(&id, &fileName, &filePath, &hash, &duration,
			&segStart, &segEnd, &provider, &language, &mdl,
			&transcript, &createdAt, &hasError, &errMsg, &deletedAt)
		if err != nil {
			m.log.Warn("skipping unreadable row", zap.Error(err))
			result.Skipped++
			continue
		}

		if strings.TrimSpace(fileName) == "" {
			m.log.Warn("skipping row with empty file_name", zap.Int64("id", id))
			result.Skipped++
			result.LastID = id
			continue
		}

		_, err = stmt.ExecContext(ctx, id, fileName, filePath, hash, duration,
			segStart, segEnd, provider, language, mdl,
			transcript, createdAt, hasError, errMsg, deletedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "insert row %d", id)
		}
		result.Migrated++
		result.LastID = id
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate source rows")
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit destination transaction")
	}

	// The destination sequence does not advance past explicit ids on its
	// own, so realign it after each batch.
	if result.Migrated > 0 {
		_, err = m.dest.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('transcripts', 'id'), (SELECT MAX(id) FROM transcripts))`)
		if err != nil {
			m.log.Warn("failed to advance id sequence", zap.Error(err))
		}
	}

	result.Done = result.Migrated+result.Skipped < BatchSize
	if err := m.saveCheckpoint(result.LastID); err != nil {
		return nil, err
	}

	m.log.Info("migrated batch",
		zap.Int("migrated", result.Migrated),
		zap.Int("skipped", result.Skipped),
		zap.Int64("last_id", result.LastID),
		zap.Bool("done", result.Done))
	return result, nil
}

// RunAll loops Run until every row is moved.
func (m *Migrator) RunAll(ctx context.Context) (*Result, error) {
	total := &Result{}
	for {
		batch, err := m.Run(ctx)
		if err != nil {
			return nil, err
		}
		total.Migrated += batch.Migrated
		total.Skipped += batch.Skipped
		total.LastID = batch.LastID
		total.Done = batch.Done
		if batch.Done {
			return total, nil
		}
	}
}

func (m *Migrator) loadCheckpoint() int64 {
	if m.checkpointPath == "" {
		return 0
	}
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		return 0
	}
	lastID, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return lastID
}

func (m *Migrator) saveCheckpoint(lastID int64) error {
	if m.checkpointPath == "" {
		return nil
	}
	err := os.WriteFile(m.checkpointPath, []byte(strconv.FormatInt(lastID, 10)), 0o644)
	if err != nil {
		return errors.Wrap(err, "save migration checkpoint")
	}
	return nil
}
