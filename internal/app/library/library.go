package library

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"mp3player/internal/app/audio"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/marker"
	"mp3player/internal/app/model"
	"mp3player/internal/app/segment"
	"mp3player/internal/config"
)

// Scanner lists the audio files in a library directory together with
// their marker sidecar state.
type Scanner struct {
	fs    afero.Fs
	store *marker.Store
	log   *zap.Logger

	// WithDuration probes each file with ffprobe. Off by default
	// because probing a large library is slow.
	WithDuration bool
}

func New(fs afero.Fs, log *zap.Logger) *Scanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{fs: fs, store: marker.NewStore(fs), log: log}
}

// AudioFiles returns the MP3 paths under dir, sorted by name.
func (s *Scanner) AudioFiles(dir string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read library directory %s", dir)
	}

	paths := lo.FilterMap(entries, func(e os.FileInfo, _ int) (string, bool) {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp3") {
			return "", false
		}
		return filepath.Join(dir, e.Name()), true
	})
	sort.Strings(paths)
	return paths, nil
}

// Scan builds the library listing for dir.
func (s *Scanner) Scan(dir string) ([]model.LibraryFile, error) {
	paths, err := s.AudioFiles(dir)
	if err != nil {
		return nil, err
	}

	files := make([]model.LibraryFile, 0, len(paths))
	for _, path := range paths {
		info, err := s.fs.Stat(path)
		if err != nil {
			s.log.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}

		f := model.LibraryFile{
			Name:      filepath.Base(path),
			Path:      path,
			SizeBytes: info.Size(),
		}

		if sidecar, err := s.store.Load(path); err != nil {
			s.log.Warn("unreadable marker sidecar", zap.String("path", path), zap.Error(err))
		} else if sidecar != nil {
			f.HasMarkers = true
			f.MarkerCount = len(sidecar.Markers)
			f.SegmentCount = len(segment.FromMarkers(sidecar.Markers))
			f.Duration = sidecar.Duration
		}

		if s.WithDuration && f.Duration == 0 {
			if d, err := audio.Duration(path); err == nil {
				f.Duration = d
			}
		}

		files = append(files, f)
	}
	return files, nil
}

// Exists reports whether an audio file is present in the library.
func (s *Scanner) Exists(audioPath string) (bool, error) {
	return afero.Exists(s.fs, audioPath)
}

// Segments returns the practice segments recorded for one audio file,
// or nil when no sidecar exists.
func (s *Scanner) Segments(audioPath string) ([]segment.Segment, error) {
	sidecar, err := s.store.Load(audioPath)
	if err != nil {
		return nil, err
	}
	if sidecar == nil {
		return nil, nil
	}
	return segment.FromMarkers(sidecar.Markers), nil
}

// Resolve maps a user-supplied audio path to an existing file: the path
// as given first, then relative to the files directory.
func Resolve(fs afero.Fs, dirs *config.Dirs, path string) (string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if ok, _ := afero.Exists(fs, path); ok {
		return path, nil
	}
	candidate := dirs.FilePath(path)
	if ok, _ := afero.Exists(fs, candidate); ok {
		return candidate, nil
	}
	return "", errors.Wrapf(errors.ErrFileNotFound, "%s", path)
}

// FileHash computes the SHA-256 of a file, used to detect re-imported
// audio under a new name.
func FileHash(fs afero.Fs, path string) (string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	f, err := fs.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
