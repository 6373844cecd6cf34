package library

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp3player/internal/app/marker"
)

func seedLibrary(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("files", 0o755))
	require.NoError(t, afero.WriteFile(fs, "files/b-side.mp3", []byte("mp3 b"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "files/a-side.mp3", []byte("mp3 a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "files/notes.txt", []byte("not audio"), 0o644))

	store := marker.NewStore(fs)
	mgr := marker.NewManager(60)
	_, err := mgr.Add(20)
	require.NoError(t, err)
	require.NoError(t, store.Save("files/a-side.mp3", mgr))
	return fs
}

func TestScanListsAudioWithSidecarState(t *testing.T) {
	s := New(seedLibrary(t), nil)

	files, err := s.Scan("files")
	require.NoError(t, err)
	require.Len(t, files, 2)

	// Sorted by name, non-audio files excluded.
	assert.Equal(t, "a-side.mp3", files[0].Name)
	assert.Equal(t, "b-side.mp3", files[1].Name)

	assert.True(t, files[0].HasMarkers)
	assert.Equal(t, 3, files[0].MarkerCount)
	assert.Equal(t, 2, files[0].SegmentCount)
	assert.InDelta(t, 60.0, files[0].Duration, 1e-9)

	assert.False(t, files[1].HasMarkers)
	assert.Zero(t, files[1].MarkerCount)
}

func TestScanMissingDirectory(t *testing.T) {
	s := New(afero.NewMemMapFs(), nil)
	_, err := s.Scan("no-such-dir")
	assert.Error(t, err)
}

func TestSegments(t *testing.T) {
	s := New(seedLibrary(t), nil)

	segs, err := s.Segments("files/a-side.mp3")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.InDelta(t, 0.0, segs[0].Start, 1e-9)
	assert.InDelta(t, 20.0, segs[0].End, 1e-9)
	assert.InDelta(t, 60.0, segs[1].End, 1e-9)

	segs, err = s.Segments("files/b-side.mp3")
	require.NoError(t, err)
	assert.Nil(t, segs)
}

func TestFileHash(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "a.mp3", []byte("same bytes"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "b.mp3", []byte("same bytes"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "c.mp3", []byte("other bytes"), 0o644))

	ha, err := FileHash(fs, "a.mp3")
	require.NoError(t, err)
	hb, err := FileHash(fs, "b.mp3")
	require.NoError(t, err)
	hc, err := FileHash(fs, "c.mp3")
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)

	_, err = FileHash(fs, "missing.mp3")
	assert.Error(t, err)
}
