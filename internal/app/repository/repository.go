package repository

import (
	"context"

	"mp3player/internal/app/model"
)

// TranscriptDAO is the persistence boundary for the transcript library.
// Both the SQLite and PostgreSQL stores implement it, and the Redis cache
// decorates it.
type TranscriptDAO interface {
	Close() error

	// Record inserts one transcript row and returns its id.
	Record(ctx context.Context, t *model.Transcript) (int64, error)

	// CheckIfFileProcessed returns the number of successful transcript rows
	// stored for fileName.
	CheckIfFileProcessed(ctx context.Context, fileName string) (int, error)

	// GetAllByFile returns every successful transcript row for fileName,
	// whole-file rows first, then segments in time order.
	GetAllByFile(ctx context.Context, fileName string) ([]model.Transcript, error)

	// Search runs a case-insensitive substring search over transcript text.
	// An empty fileName searches the whole library.
	Search(ctx context.Context, fileName, query string, limit int) ([]model.Transcript, error)

	// GetByProvider returns the most recent rows produced by one provider.
	GetByProvider(ctx context.Context, providerName string, limit int) ([]model.Transcript, error)

	// GetRecent returns the most recently recorded rows.
	GetRecent(ctx context.Context, limit int) ([]model.Transcript, error)

	// Stats aggregates library counters.
	Stats(ctx context.Context) (*model.TranscriptStats, error)

	// SoftDelete hides a row from every query without removing it.
	SoftDelete(ctx context.Context, id int64) error
}
