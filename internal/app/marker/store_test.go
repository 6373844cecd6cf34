package marker

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, "files/lesson.markers.json", SidecarPath("files/lesson.mp3"))
	assert.Equal(t, "/abs/track.markers.json", SidecarPath("/abs/track.MP3"))
	assert.Equal(t, "noext.markers.json", SidecarPath("noext"))
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)

	mgr := NewManager(180)
	_, err := mgr.Add(12.5)
	require.NoError(t, err)
	_, err = mgr.Add(60)
	require.NoError(t, err)
	require.NoError(t, mgr.SetComment("Marker1", "intro"))
	require.NoError(t, mgr.SetContent("Marker1", "hello world"))

	require.NoError(t, store.Save("files/lesson.mp3", mgr))
	assert.True(t, store.Exists("files/lesson.mp3"))

	loaded, err := store.Load("files/lesson.mp3")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, SidecarVersion, loaded.Version)
	assert.Equal(t, "lesson.mp3", loaded.AudioFile)
	assert.Equal(t, 180.0, loaded.Duration)
	require.Len(t, loaded.Markers, 4)

	restored, err := store.LoadManager("files/lesson.mp3", 180)
	require.NoError(t, err)
	users := restored.UserMarkers()
	require.Len(t, users, 2)
	assert.Equal(t, 12.5, users[0].Time)
	assert.Equal(t, "intro", users[0].Comment)
	assert.Equal(t, "hello world", users[0].Content)
}

func TestStoreLoadMissingSidecar(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())

	f, err := store.Load("files/unknown.mp3")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.False(t, store.Exists("files/unknown.mp3"))
}

func TestStoreLoadManagerWithoutSidecarStartsFresh(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())

	mgr, err := store.LoadManager("files/new.mp3", 90)
	require.NoError(t, err)
	assert.Empty(t, mgr.UserMarkers())
	assert.Equal(t, 90.0, mgr.Duration())
}

func TestStoreLoadManagerUsesSidecarDuration(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)

	mgr := NewManager(240)
	_, err := mgr.Add(33)
	require.NoError(t, err)
	require.NoError(t, store.Save("a.mp3", mgr))

	// Duration unknown at load time, e.g. before the probe has run.
	restored, err := store.LoadManager("a.mp3", 0)
	require.NoError(t, err)
	assert.Equal(t, 240.0, restored.Duration())
	assert.Len(t, restored.UserMarkers(), 1)
}

func TestStoreLoadRejectsCorruptSidecar(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.markers.json", []byte("{not json"), 0o644))

	store := NewStore(fs)
	_, err := store.Load("bad.mp3")
	assert.Error(t, err)
}
