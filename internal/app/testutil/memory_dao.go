package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"mp3player/internal/app/errors"
	"mp3player/internal/app/model"
	"mp3player/internal/app/repository"
)

// MemoryDAO is an in-memory TranscriptDAO with the same visible behavior
// as the SQL stores: soft deletes hide rows, error rows are excluded from
// reads but counted in stats, search is case-insensitive substring match.
type MemoryDAO struct {
	mu     sync.Mutex
	nextID int64
	rows   []model.Transcript

	// FailWith makes every operation return this error, for testing
	// degraded paths.
	FailWith error
}

func NewMemoryDAO() *MemoryDAO {
	return &MemoryDAO{nextID: 1}
}

var _ repository.TranscriptDAO = (*MemoryDAO)(nil)

func (d *MemoryDAO) Close() error { return nil }

func (d *MemoryDAO) Record(ctx context.Context, t *model.Transcript) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return 0, d.FailWith
	}
	if t == nil || t.FileName == "" {
		return 0, errors.RequiredField("file_name")
	}

	row := *t
	row.ID = int(d.nextID)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	d.rows = append(d.rows, row)
	d.nextID++
	return int64(row.ID), nil
}

func (d *MemoryDAO) CheckIfFileProcessed(ctx context.Context, fileName string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return 0, d.FailWith
	}
	count := 0
	for _, r := range d.rows {
		if r.FileName == fileName && r.HasError == 0 && r.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (d *MemoryDAO) GetAllByFile(ctx context.Context, fileName string) ([]model.Transcript, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return nil, d.FailWith
	}
	out := d.filter(func(r model.Transcript) bool { return r.FileName == fileName })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SegmentStart != out[j].SegmentStart {
			return out[i].SegmentStart < out[j].SegmentStart
		}
		return out[i].SegmentEnd < out[j].SegmentEnd
	})
	return out, nil
}

func (d *MemoryDAO) Search(ctx context.Context, fileName, query string, limit int) ([]model.Transcript, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return nil, d.FailWith
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.RequiredField("query")
	}
	needle := strings.ToLower(query)
	out := d.filter(func(r model.Transcript) bool {
		if fileName != "" && r.FileName != fileName {
			return false
		}
		return strings.Contains(strings.ToLower(r.Text), needle)
	})
	return d.recentFirst(out, limit), nil
}

func (d *MemoryDAO) GetByProvider(ctx context.Context, providerName string, limit int) ([]model.Transcript, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return nil, d.FailWith
	}
	out := d.filter(func(r model.Transcript) bool { return r.Provider == providerName })
	return d.recentFirst(out, limit), nil
}

func (d *MemoryDAO) GetRecent(ctx context.Context, limit int) ([]model.Transcript, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return nil, d.FailWith
	}
	out := d.filter(func(model.Transcript) bool { return true })
	return d.recentFirst(out, limit), nil
}

func (d *MemoryDAO) Stats(ctx context.Context) (*model.TranscriptStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return nil, d.FailWith
	}
	stats := &model.TranscriptStats{}
	files := make(map[string]struct{})
	for _, r := range d.rows {
		if r.DeletedAt != nil {
			continue
		}
		stats.Total++
		files[r.FileName] = struct{}{}
		if r.HasError != 0 {
			stats.Errors++
			continue
		}
		stats.AudioSeconds += r.AudioDuration
	}
	stats.Files = len(files)
	return stats, nil
}

func (d *MemoryDAO) SoftDelete(ctx context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailWith != nil {
		return d.FailWith
	}
	for i := range d.rows {
		if int64(d.rows[i].ID) == id && d.rows[i].DeletedAt == nil {
			now := time.Now()
			d.rows[i].DeletedAt = &now
			return nil
		}
	}
	return errors.NotFound("transcript", "id")
}

// Rows returns a copy of every live row, newest insertion last.
func (d *MemoryDAO) Rows() []model.Transcript {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Transcript, 0, len(d.rows))
	for _, r := range d.rows {
		if r.DeletedAt == nil {
			out = append(out, r)
		}
	}
	return out
}

// filter must be called with the mutex held. It applies the shared
// visibility rules before the predicate.
func (d *MemoryDAO) filter(keep func(model.Transcript) bool) []model.Transcript {
	out := make([]model.Transcript, 0)
	for _, r := range d.rows {
		if r.DeletedAt != nil || r.HasError != 0 {
			continue
		}
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (d *MemoryDAO) recentFirst(rows []model.Transcript, limit int) []model.Transcript {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if limit <= 0 {
		limit = repository.DefaultQueryLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
