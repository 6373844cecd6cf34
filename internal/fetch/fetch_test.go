package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/ep1.mp3", ".mp3"},
		{"https://cdn.example.com/ep1.MP3", ".mp3"},
		{"https://cdn.example.com/ep1.m4a?token=abc", ".m4a"},
		{"https://cdn.example.com/ep1.flac#t=10", ".flac"},
		{"https://cdn.example.com/ep1.mp4", ""},
		{"https://cdn.example.com/ep1", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AudioExtension(tt.url), tt.url)
	}
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "a-b", SanitizeFileName("a/b"))
	assert.Equal(t, "Ep 12- Vowels", SanitizeFileName(`Ep 12: Vowels?`))
	assert.Equal(t, "episode", SanitizeFileName("***"))
	assert.Equal(t, "trimmed", SanitizeFileName("  trimmed  "))
}

func newEpisodeServer(t *testing.T, audio []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/episode/abc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
			<meta property="og:title" content="Lesson 1: Greetings" />
			<meta property="og:audio" content="%s/audio/lesson1.mp3" />
			</head><body><span class="podcast-title">Slow English</span></body></html>`, srv.URL)
	})
	mux.HandleFunc("/audio/lesson1.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(audio)))
		if r.Method == http.MethodHead {
			return
		}
		w.Write(audio)
	})
	mux.HandleFunc("/episode/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<script id="__NEXT_DATA__" type="application/json">
			{"props":{"pageProps":{"episode":{
				"title":"Embedded Episode",
				"enclosure":{"url":"%s/audio/lesson1.mp3"},
				"podcast":{"title":"Slow English"}}}}}
			</script></body></html>`, srv.URL)
	})
	mux.HandleFunc("/episode/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>nothing here</title></head></html>`)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveFromMetaTags(t *testing.T) {
	srv := newEpisodeServer(t, []byte("mp3"))
	f := New(srv.Client(), afero.NewMemMapFs(), nil)

	ep, err := f.Resolve(context.Background(), srv.URL+"/episode/abc")
	require.NoError(t, err)
	assert.Equal(t, "Lesson 1: Greetings", ep.Title)
	assert.Equal(t, "Slow English", ep.Podcast)
	assert.Contains(t, ep.AudioURL, "/audio/lesson1.mp3")
}

func TestResolveFromEmbeddedJSON(t *testing.T) {
	srv := newEpisodeServer(t, []byte("mp3"))
	f := New(srv.Client(), afero.NewMemMapFs(), nil)

	ep, err := f.Resolve(context.Background(), srv.URL+"/episode/json")
	require.NoError(t, err)
	assert.Equal(t, "Embedded Episode", ep.Title)
	assert.Equal(t, "Slow English", ep.Podcast)
	assert.Contains(t, ep.AudioURL, "/audio/lesson1.mp3")
}

func TestResolveNoAudio(t *testing.T) {
	srv := newEpisodeServer(t, []byte("mp3"))
	f := New(srv.Client(), afero.NewMemMapFs(), nil)

	_, err := f.Resolve(context.Background(), srv.URL+"/episode/empty")
	assert.Error(t, err)
}

func TestEpisodeDownloadsAndSkips(t *testing.T) {
	audio := []byte("fake mp3 payload")
	srv := newEpisodeServer(t, audio)
	fs := afero.NewMemMapFs()
	f := New(srv.Client(), fs, nil)
	dir := "files"

	result, err := f.Episode(context.Background(), srv.URL+"/episode/abc", dir)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, filepath.Join(dir, "Lesson 1- Greetings.mp3"), result.Path)

	data, err := afero.ReadFile(fs, result.Path)
	require.NoError(t, err)
	assert.Equal(t, audio, data)

	// Second run sees a local file with the remote size and skips.
	again, err := f.Episode(context.Background(), srv.URL+"/episode/abc", dir)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}

func TestBatchContinuesPastFailures(t *testing.T) {
	srv := newEpisodeServer(t, []byte("mp3"))
	f := New(srv.Client(), afero.NewMemMapFs(), nil)

	results := f.Batch(context.Background(), []string{
		srv.URL + "/episode/empty",
		srv.URL + "/episode/abc",
	}, "files")

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.NotEmpty(t, results[1].Path)
}
