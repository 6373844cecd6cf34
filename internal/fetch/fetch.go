// Package fetch downloads podcast episode audio into the files
// directory, where the player and transcription pipeline pick it up.
package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"

	"mp3player/internal/app/errors"
)

var audioExtensions = []string{".mp3", ".m4a", ".wav", ".ogg", ".flac"}

// Episode is what a podcast page tells us about one downloadable
// episode.
type Episode struct {
	Title    string
	Podcast  string
	AudioURL string
}

// Result reports one finished download.
type Result struct {
	URL      string
	Path     string
	Skipped  bool
	Err      error
}

// Fetcher resolves episode pages and downloads their audio.
type Fetcher struct {
	client *http.Client
	fs     afero.Fs
	log    *zap.Logger

	// ShowProgress renders an mpb download bar per file.
	ShowProgress bool
}

// New builds a Fetcher. A nil client gets a 60s-timeout default; a nil
// fs gets the OS filesystem.
func New(client *http.Client, fs afero.Fs, log *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{client: client, fs: fs, log: log}
}

// Episode downloads one episode page's audio into dir and returns the
// local path. Files already present with the remote size are skipped.
func (f *Fetcher) Episode(ctx context.Context, pageURL, dir string) (*Result, error) {
	ep, err := f.Resolve(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	ext := AudioExtension(ep.AudioURL)
	if ext == "" {
		return nil, errors.Newf("no supported audio extension in url %s", ep.AudioURL)
	}

	path := filepath.Join(dir, SanitizeFileName(ep.Title)+ext)
	result := &Result{URL: pageURL, Path: path}

	skip, err := f.upToDate(ctx, ep.AudioURL, path)
	if err != nil {
		f.log.Debug("size check failed, downloading anyway",
			zap.String("url", ep.AudioURL), zap.Error(err))
	}
	if skip {
		f.log.Info("local file matches remote size, skipping",
			zap.String("path", path))
		result.Skipped = true
		return result, nil
	}

	f.log.Info("downloading episode",
		zap.String("title", ep.Title),
		zap.String("path", path))
	if err := f.download(ctx, ep.AudioURL, path); err != nil {
		return nil, errors.Wrapf(err, "download %s", ep.AudioURL)
	}
	return result, nil
}

// Batch downloads several episode pages, continuing past per-URL
// failures.
func (f *Fetcher) Batch(ctx context.Context, pageURLs []string, dir string) []Result {
	results := make([]Result, 0, len(pageURLs))
	for _, u := range pageURLs {
		r, err := f.Episode(ctx, u, dir)
		if err != nil {
			f.log.Warn("episode download failed",
				zap.String("url", u), zap.Error(err))
			results = append(results, Result{URL: u, Err: err})
			continue
		}
		results = append(results, *r)
	}
	return results
}

// Resolve fetches an episode page and extracts its title and audio
// URL. It tries Open Graph meta tags first, then an embedded
// __NEXT_DATA__ JSON payload, then a bare <audio> source.
func (f *Fetcher) Resolve(ctx context.Context, pageURL string) (*Episode, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build page request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch episode page")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("episode page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse episode page")
	}

	ep := &Episode{}
	ep.AudioURL, _ = doc.Find(`meta[property="og:audio"]`).First().Attr("content")
	ep.Title, _ = doc.Find(`meta[property="og:title"]`).First().Attr("content")
	ep.Podcast = strings.TrimSpace(doc.Find(".podcast-title").First().Text())

	if ep.AudioURL == "" {
		fromJSON(doc, ep)
	}
	if ep.AudioURL == "" {
		ep.AudioURL, _ = doc.Find("audio source").First().Attr("src")
	}
	if ep.Title == "" {
		ep.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if ep.AudioURL == "" {
		return nil, errors.Newf("no audio url found in page %s", pageURL)
	}
	if ep.Title == "" {
		ep.Title = strings.TrimSuffix(filepath.Base(ep.AudioURL), filepath.Ext(ep.AudioURL))
	}
	return ep, nil
}

// nextData mirrors the slice of a Next.js __NEXT_DATA__ payload podcast
// pages embed; only the enclosure and title matter here.
type nextData struct {
	Props struct {
		PageProps struct {
			Episode struct {
				Title     string `json:"title"`
				Enclosure struct {
					URL string `json:"url"`
				} `json:"enclosure"`
				Podcast struct {
					Title string `json:"title"`
				} `json:"podcast"`
			} `json:"episode"`
		} `json:"pageProps"`
	} `json:"props"`
}

func fromJSON(doc *goquery.Document, ep *Episode) {
	raw := doc.Find("#__NEXT_DATA__").Text()
	if raw == "" {
		return
	}
	var data nextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return
	}
	e := data.Props.PageProps.Episode
	if ep.AudioURL == "" {
		ep.AudioURL = e.Enclosure.URL
	}
	if ep.Title == "" {
		ep.Title = e.Title
	}
	if ep.Podcast == "" {
		ep.Podcast = e.Podcast.Title
	}
}

// upToDate reports whether the local file already matches the remote
// content length.
func (f *Fetcher) upToDate(ctx context.Context, audioURL, path string) (bool, error) {
	info, err := f.fs.Stat(path)
	if err != nil {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, audioURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.ContentLength > 0 && resp.ContentLength == info.Size(), nil
}

func (f *Fetcher) download(ctx context.Context, audioURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("audio download returned status %d", resp.StatusCode)
	}

	if err := f.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := f.fs.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	var body io.Reader = resp.Body
	if f.ShowProgress && resp.ContentLength > 0 {
		p := mpb.New(mpb.WithWidth(60))
		bar := p.New(resp.ContentLength,
			mpb.BarStyle(),
			mpb.PrependDecorators(decor.Name(filepath.Base(path)+" ")),
			mpb.AppendDecorators(decor.CountersKibiByte("% .1f / % .1f")),
		)
		body = bar.ProxyReader(resp.Body)
		defer p.Wait()
	}

	if _, err := io.Copy(out, body); err != nil {
		f.fs.Remove(path)
		return err
	}
	return nil
}

// AudioExtension returns the supported audio extension an URL ends
// with, or empty.
func AudioExtension(audioURL string) string {
	u := audioURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	lower := strings.ToLower(u)
	for _, ext := range audioExtensions {
		if strings.HasSuffix(lower, ext) {
			return ext
		}
	}
	return ""
}

// SanitizeFileName strips path separators and characters that break
// common filesystems from an episode title.
func SanitizeFileName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
		"\x00", "",
	)
	clean := strings.TrimSpace(replacer.Replace(name))
	if clean == "" {
		clean = "episode"
	}
	return clean
}
