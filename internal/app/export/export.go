// Package export renders marker segments and library transcripts to
// text, Markdown, LRC lyrics, and XLSX workbooks.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"mp3player/internal/app/errors"
	"mp3player/internal/app/marker"
	"mp3player/internal/app/model"
	"mp3player/internal/app/segment"
	"mp3player/internal/app/timeutil"
)

// Format selects an output rendering.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatLRC      Format = "lrc"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatLRC:
		return FormatLRC, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", errors.InvalidField("format", fmt.Sprintf("unknown format %q (want txt, md, lrc or xlsx)", s))
}

// Exporter writes export files through an injected filesystem.
type Exporter struct {
	fs    afero.Fs
	store *marker.Store
	log   *zap.Logger

	// Timestamps adds a time-range header before each text segment.
	Timestamps bool
}

// New builds an Exporter. A nil fs selects the OS filesystem.
func New(fs afero.Fs, log *zap.Logger) *Exporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{fs: fs, store: marker.NewStore(fs), log: log}
}

// SegmentsFor loads the marker sidecar of audioPath and derives its
// segments. An audio file without a sidecar has no segments to export.
func (e *Exporter) SegmentsFor(audioPath string) ([]segment.Segment, error) {
	f, err := e.store.Load(audioPath)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.Wrapf(errors.ErrFileNotFound, "no marker file for %s", audioPath)
	}
	return segment.FromMarkers(f.Markers), nil
}

// File exports one audio file's segments in the given format and
// returns the output path.
func (e *Exporter) File(audioPath string, format Format, outputPath string) (string, error) {
	segments, err := e.SegmentsFor(audioPath)
	if err != nil {
		return "", err
	}
	if outputPath == "" {
		outputPath = DefaultOutputPath(audioPath, format)
	}

	var content string
	switch format {
	case FormatText:
		content = e.renderText(segments)
	case FormatMarkdown:
		content = renderMarkdown(audioPath, segments)
	case FormatLRC:
		content = renderLRC(segments)
	default:
		return "", errors.InvalidField("format", fmt.Sprintf("%q cannot render marker segments", format))
	}

	if err := afero.WriteFile(e.fs, outputPath, []byte(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "write export %s", outputPath)
	}
	e.log.Info("exported segments",
		zap.String("audio", audioPath),
		zap.String("format", string(format)),
		zap.String("output", outputPath))
	return outputPath, nil
}

// DefaultOutputPath maps files/lesson.mp3 + md -> files/lesson.md
func DefaultOutputPath(audioPath string, format Format) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + "." + string(format)
}

func (e *Exporter) renderText(segments []segment.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Content == "" {
			continue
		}
		if e.Timestamps {
			b.WriteString("[" + s.Label() + "]\n")
		}
		b.WriteString(s.Content)
		b.WriteString("\n")
		if e.Timestamps {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderMarkdown(audioPath string, segments []segment.Segment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", filepath.Base(audioPath))
	for _, s := range segments {
		fmt.Fprintf(&b, "## Segment %d (%s)\n\n", s.Index, s.Label())
		if s.Comment != "" {
			fmt.Fprintf(&b, "> %s\n\n", s.Comment)
		}
		if s.Content != "" {
			b.WriteString(s.Content)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// renderLRC writes one [mm:ss.cc] lyric line per segment with content.
func renderLRC(segments []segment.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Content == "" {
			continue
		}
		// LRC wants a single line per timestamp.
		text := strings.ReplaceAll(s.Content, "\n", " ")
		fmt.Fprintf(&b, "[%s]%s\n", timeutil.Format(s.Start), text)
	}
	return b.String()
}

// Library writes all transcript rows to one XLSX workbook.
func (e *Exporter) Library(transcripts []model.Transcript, outputPath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transcripts")
	if err != nil {
		return errors.Wrap(err, "add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, title := range []string{"ID", "File", "Range", "Duration", "Provider", "Language", "Model", "Transcript", "Error"} {
		header.AddCell().Value = title
	}

	for _, t := range transcripts {
		row := sheet.AddRow()
		row.AddCell().Value = fmt.Sprint(t.ID)
		row.AddCell().Value = t.FileName
		row.AddCell().Value = rangeLabel(&t)
		row.AddCell().Value = fmt.Sprintf("%.2f", t.AudioDuration)
		row.AddCell().Value = t.Provider
		row.AddCell().Value = t.Language
		row.AddCell().Value = t.Model
		row.AddCell().Value = t.Text
		row.AddCell().Value = t.ErrorMessage
	}

	out, err := e.fs.Create(outputPath)
	if err != nil {
		return errors.Wrapf(err, "create %s", outputPath)
	}
	defer out.Close()

	if err := file.Write(out); err != nil {
		return errors.Wrap(err, "write xlsx workbook")
	}
	e.log.Info("exported library workbook",
		zap.Int("rows", len(transcripts)),
		zap.String("output", outputPath))
	return nil
}

func rangeLabel(t *model.Transcript) string {
	if !t.IsSegment() {
		return "full"
	}
	return timeutil.Format(t.SegmentStart) + " - " + timeutil.Format(t.SegmentEnd)
}
