// Package cache decorates a TranscriptDAO with a Redis read-through layer
// for the hot read paths: search, recent listings, and stats. Writes bump a
// generation counter instead of deleting keys, so stale entries simply age
// out under their own keys.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mp3player/internal/app/model"
	"mp3player/internal/app/repository"
)

const (
	keyPrefix = "m3p:library:"
	genKey    = keyPrefix + "gen"

	// DefaultTTL bounds staleness even if the generation counter is lost.
	DefaultTTL = 5 * time.Minute
)

// ReadThroughDAO caches read results in Redis and falls back to the inner
// DAO on any cache miss or Redis failure. Redis being down never fails a
// query, it only removes the shortcut.
type ReadThroughDAO struct {
	repository.TranscriptDAO
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

var _ repository.TranscriptDAO = (*ReadThroughDAO)(nil)

func Wrap(inner repository.TranscriptDAO, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *ReadThroughDAO {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReadThroughDAO{
		TranscriptDAO: inner,
		rdb:           rdb,
		ttl:           ttl,
		log:           log,
	}
}

func (d *ReadThroughDAO) Search(ctx context.Context, fileName, query string, limit int) ([]model.Transcript, error) {
	key := searchKey(d.generation(ctx), fileName, query, limit)

	var cached []model.Transcript
	if d.fetch(ctx, key, &cached) {
		return cached, nil
	}

	results, err := d.TranscriptDAO.Search(ctx, fileName, query, limit)
	if err != nil {
		return nil, err
	}
	d.store(ctx, key, results)
	return results, nil
}

func (d *ReadThroughDAO) GetRecent(ctx context.Context, limit int) ([]model.Transcript, error) {
	key := recentKey(d.generation(ctx), limit)

	var cached []model.Transcript
	if d.fetch(ctx, key, &cached) {
		return cached, nil
	}

	results, err := d.TranscriptDAO.GetRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	d.store(ctx, key, results)
	return results, nil
}

func (d *ReadThroughDAO) Stats(ctx context.Context) (*model.TranscriptStats, error) {
	key := statsKey(d.generation(ctx))

	var cached model.TranscriptStats
	if d.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	stats, err := d.TranscriptDAO.Stats(ctx)
	if err != nil {
		return nil, err
	}
	d.store(ctx, key, stats)
	return stats, nil
}

func (d *ReadThroughDAO) Record(ctx context.Context, t *model.Transcript) (int64, error) {
	id, err := d.TranscriptDAO.Record(ctx, t)
	if err == nil {
		d.invalidate(ctx)
	}
	return id, err
}

func (d *ReadThroughDAO) SoftDelete(ctx context.Context, id int64) error {
	err := d.TranscriptDAO.SoftDelete(ctx, id)
	if err == nil {
		d.invalidate(ctx)
	}
	return err
}

func (d *ReadThroughDAO) generation(ctx context.Context) int64 {
	gen, err := d.rdb.Get(ctx, genKey).Int64()
	if err != nil {
		if err != redis.Nil {
			d.log.Debug("cache generation read failed", zap.Error(err))
		}
		return 0
	}
	return gen
}

func (d *ReadThroughDAO) invalidate(ctx context.Context) {
	if err := d.rdb.Incr(ctx, genKey).Err(); err != nil {
		d.log.Debug("cache invalidation failed", zap.Error(err))
	}
}

// fetch reports whether the key was present and decoded into dest.
func (d *ReadThroughDAO) fetch(ctx context.Context, key string, dest interface{}) bool {
	data, err := d.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			d.log.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		d.log.Debug("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (d *ReadThroughDAO) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		d.log.Debug("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := d.rdb.Set(ctx, key, data, d.ttl).Err(); err != nil {
		d.log.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func searchKey(gen int64, fileName, query string, limit int) string {
	return fmt.Sprintf("%sg%d:search:%s:%s:%d", keyPrefix, gen, fileName, query, limit)
}

func recentKey(gen int64, limit int) string {
	return fmt.Sprintf("%sg%d:recent:%d", keyPrefix, gen, limit)
}

func statsKey(gen int64) string {
	return fmt.Sprintf("%sg%d:stats", keyPrefix, gen)
}
