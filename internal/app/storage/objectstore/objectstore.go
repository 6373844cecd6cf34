// Package objectstore backs up the files directory (audio, marker
// sidecars, exports) to an S3-compatible bucket and restores it.
package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"mp3player/internal/app/errors"
	"mp3player/internal/config"
)

// Client wraps a MinIO connection to one bucket.
type Client struct {
	mc     *minio.Client
	bucket string
	log    *zap.Logger
}

// SyncResult counts one sync run's outcomes.
type SyncResult struct {
	Uploaded   int
	Downloaded int
	Skipped    int
	Failed     int
}

// New connects to the configured endpoint and ensures the bucket
// exists.
func New(ctx context.Context, cfg *config.ObjectStoreConfig, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create object storage client")
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "check bucket existence")
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "create bucket %s", cfg.Bucket)
		}
		log.Info("created bucket", zap.String("bucket", cfg.Bucket))
	}

	return &Client{mc: mc, bucket: cfg.Bucket, log: log}, nil
}

// SyncUp uploads every syncable file under dir that is missing from
// the bucket or has a different size. Object keys are paths relative
// to dir.
func (c *Client) SyncUp(ctx context.Context, dir string) (*SyncResult, error) {
	result := &SyncResult{}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !Syncable(path) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		key, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key = filepath.ToSlash(key)

		if c.objectMatches(ctx, key, info.Size()) {
			result.Skipped++
			return nil
		}

		_, err = c.mc.FPutObject(ctx, c.bucket, key, path, minio.PutObjectOptions{
			ContentType: ContentTypeFor(path),
		})
		if err != nil {
			c.log.Warn("upload failed",
				zap.String("key", key), zap.Error(err))
			result.Failed++
			return nil
		}

		c.log.Info("uploaded", zap.String("key", key), zap.Int64("bytes", info.Size()))
		result.Uploaded++
		return nil
	})
	if err != nil {
		return result, errors.Wrapf(err, "walk %s", dir)
	}
	return result, nil
}

// SyncDown downloads every bucket object missing locally or stored
// with a different size.
func (c *Client) SyncDown(ctx context.Context, dir string) (*SyncResult, error) {
	result := &SyncResult{}

	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return result, errors.Wrap(obj.Err, "list bucket objects")
		}

		path := filepath.Join(dir, filepath.FromSlash(obj.Key))
		if info, err := os.Stat(path); err == nil && info.Size() == obj.Size {
			result.Skipped++
			continue
		}

		if err := c.mc.FGetObject(ctx, c.bucket, obj.Key, path, minio.GetObjectOptions{}); err != nil {
			c.log.Warn("download failed",
				zap.String("key", obj.Key), zap.Error(err))
			result.Failed++
			continue
		}

		c.log.Info("downloaded", zap.String("key", obj.Key), zap.Int64("bytes", obj.Size))
		result.Downloaded++
	}
	return result, nil
}

func (c *Client) objectMatches(ctx context.Context, key string, size int64) bool {
	stat, err := c.mc.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	return err == nil && stat.Size == size
}

// Syncable reports whether path belongs in the backup: audio files,
// marker sidecars, transcript sidecars, and exports.
func Syncable(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".markers.json") {
		return true
	}
	switch filepath.Ext(name) {
	case ".mp3", ".m4a", ".wav", ".ogg", ".flac",
		".txt", ".md", ".lrc", ".xlsx":
		return true
	}
	return false
}

// ContentTypeFor maps a file name to its upload content type.
func ContentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".json":
		return "application/json"
	case ".txt", ".lrc":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
