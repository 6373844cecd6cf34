package export

import (
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp3player/internal/app/marker"
	"mp3player/internal/app/model"
)

func writeSidecar(t *testing.T, fs afero.Fs, audioPath string, markers []marker.Marker, duration float64) {
	t.Helper()
	f := marker.File{
		Version:   marker.SidecarVersion,
		AudioFile: audioPath,
		Duration:  duration,
		Markers:   markers,
	}
	data, err := json.Marshal(&f)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, marker.SidecarPath(audioPath), data, 0o644))
}

func testMarkers() []marker.Marker {
	return []marker.Marker{
		{Time: 0, Name: marker.FixedStartName, Content: "hello there"},
		{Time: 10.5, Name: "Marker1", Comment: "tricky part", Content: "second segment"},
		{Time: 30, Name: marker.FixedEndName},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"txt", "md", "lrc", "xlsx", "TXT"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "files/lesson.md", DefaultOutputPath("files/lesson.mp3", FormatMarkdown))
	assert.Equal(t, "files/lesson.lrc", DefaultOutputPath("files/lesson.mp3", FormatLRC))
}

func TestFileText(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSidecar(t, fs, "files/lesson.mp3", testMarkers(), 30)
	e := New(fs, nil)

	out, err := e.File("files/lesson.mp3", FormatText, "")
	require.NoError(t, err)
	assert.Equal(t, "files/lesson.txt", out)

	data, err := afero.ReadFile(fs, out)
	require.NoError(t, err)
	assert.Equal(t, "hello there\nsecond segment\n", string(data))
}

func TestFileTextWithTimestamps(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSidecar(t, fs, "files/lesson.mp3", testMarkers(), 30)
	e := New(fs, nil)
	e.Timestamps = true

	out, err := e.File("files/lesson.mp3", FormatText, "")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Segment 1 [00:00.00 - 00:10.50]]\nhello there")
}

func TestFileMarkdown(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSidecar(t, fs, "files/lesson.mp3", testMarkers(), 30)
	e := New(fs, nil)

	out, err := e.File("files/lesson.mp3", FormatMarkdown, "")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# lesson.mp3")
	assert.Contains(t, text, "## Segment 1 (Segment 1 [00:00.00 - 00:10.50])")
	assert.Contains(t, text, "> tricky part")
	assert.Contains(t, text, "second segment")
}

func TestFileLRC(t *testing.T) {
	fs := afero.NewMemMapFs()
	markers := testMarkers()
	markers[1].Content = "line one\nline two"
	writeSidecar(t, fs, "files/lesson.mp3", markers, 30)
	e := New(fs, nil)

	out, err := e.File("files/lesson.mp3", FormatLRC, "")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, out)
	require.NoError(t, err)
	assert.Equal(t, "[00:00.00]hello there\n[00:10.50]line one line two\n", string(data))
}

func TestFileWithoutSidecar(t *testing.T) {
	e := New(afero.NewMemMapFs(), nil)
	_, err := e.File("files/missing.mp3", FormatText, "")
	assert.Error(t, err)
}

func TestLibraryXLSX(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := New(fs, nil)

	rows := []model.Transcript{
		{ID: 1, FileName: "lesson.mp3", AudioDuration: 30, Provider: "faster_whisper", Text: "hello"},
		{ID: 2, FileName: "lesson.mp3", SegmentStart: 10, SegmentEnd: 20, Text: "segment text"},
	}
	require.NoError(t, e.Library(rows, "library.xlsx"))

	info, err := fs.Stat("library.xlsx")
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSidecar(t, fs, "files/a.mp3", testMarkers(), 30)
	writeSidecar(t, fs, "files/b.mp3", testMarkers(), 30)
	e := New(fs, nil)

	results := e.Batch([]string{"files/a.mp3", "files/b.mp3", "files/missing.mp3"},
		FormatText, BatchOptions{Parallel: 2})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Error(t, results[2].Err)

	for _, path := range []string{"files/a.txt", "files/b.txt"} {
		ok, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.True(t, ok, path)
	}
}
