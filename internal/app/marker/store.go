package marker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// SidecarVersion is bumped when the sidecar layout changes.
const SidecarVersion = 1

// File is the JSON sidecar saved next to each MP3.
type File struct {
	Version   int      `json:"version"`
	AudioFile string   `json:"audio_file"`
	Duration  float64  `json:"duration"`
	Markers   []Marker `json:"markers"`
}

// Store reads and writes marker sidecars. The filesystem is injected so
// tests run against an in-memory fs.
type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// SidecarPath maps an audio path to its marker sidecar:
// files/lesson.mp3 -> files/lesson.markers.json
func SidecarPath(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + ".markers.json"
}

// Load reads the sidecar for audioPath. A missing sidecar is not an error;
// it returns (nil, nil) so callers start with a fresh marker set.
func (s *Store) Load(audioPath string) (*File, error) {
	path := SidecarPath(audioPath)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read marker file %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse marker file %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the manager's current markers as the sidecar for audioPath.
func (s *Store) Save(audioPath string, mgr *Manager) error {
	f := File{
		Version:   SidecarVersion,
		AudioFile: filepath.Base(audioPath),
		Duration:  mgr.Duration(),
		Markers:   mgr.Markers(),
	}

	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode markers: %w", err)
	}

	path := SidecarPath(audioPath)
	if err := afero.WriteFile(s.fs, path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write marker file %s: %w", path, err)
	}
	return nil
}

// Exists reports whether audioPath has a sidecar.
func (s *Store) Exists(audioPath string) bool {
	ok, err := afero.Exists(s.fs, SidecarPath(audioPath))
	return err == nil && ok
}

// LoadManager builds a Manager for audioPath: sidecar markers when present,
// otherwise a fresh set for the given duration.
func (s *Store) LoadManager(audioPath string, duration float64) (*Manager, error) {
	f, err := s.Load(audioPath)
	if err != nil {
		return nil, err
	}

	if f == nil {
		return NewManager(duration), nil
	}

	if duration <= 0 {
		duration = f.Duration
	}
	mgr := NewManager(duration)
	mgr.Restore(f.Markers)
	return mgr, nil
}
