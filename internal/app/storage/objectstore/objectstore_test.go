package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncable(t *testing.T) {
	syncable := []string{
		"files/lesson.mp3",
		"files/lesson.M4A",
		"files/lesson.markers.json",
		"files/lesson_transcription.txt",
		"files/lesson.md",
		"files/lesson.lrc",
		"exports/library.xlsx",
	}
	for _, path := range syncable {
		assert.True(t, Syncable(path), path)
	}

	notSyncable := []string{
		"files/.DS_Store",
		"files/lesson.mp4",
		"data/library.db",
		"files/notes.json",
	}
	for _, path := range notSyncable {
		assert.False(t, Syncable(path), path)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"a.mp3":         "audio/mpeg",
		"a.WAV":         "audio/wav",
		"a.markers.json": "application/json",
		"a.txt":         "text/plain",
		"a.lrc":         "text/plain",
		"a.md":          "text/markdown",
		"a.xlsx":        "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"a.bin":         "application/octet-stream",
	}
	for path, want := range tests {
		assert.Equal(t, want, ContentTypeFor(path), path)
	}
}
