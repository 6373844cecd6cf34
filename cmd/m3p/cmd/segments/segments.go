package segments

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mp3player/internal/app/audio"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/library"
	"mp3player/internal/app/marker"
	"mp3player/internal/app/segment"
	"mp3player/internal/app/timeutil"
	"mp3player/internal/config"
)

var filePath string

func init() {
	Cmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "MP3 file the segments belong to")
	Cmd.MarkPersistentFlagRequired("file")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(infoCmd)
}

// Cmd represents the segments command
var Cmd = &cobra.Command{
	Use:   "segments",
	Short: "Inspect the marker-delimited segments of an MP3",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all segments",
	RunE: func(cmd *cobra.Command, args []string) error {
		segs, err := loadSegments()
		if err != nil {
			return err
		}
		if len(segs) == 0 {
			fmt.Println("no segments (place at least one marker first)")
			return nil
		}
		for _, s := range segs {
			line := s.Label()
			if s.Comment != "" {
				line += "  # " + s.Comment
			}
			if s.Content != "" {
				line += "  [transcribed]"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <index>",
	Short: "Show one segment in detail, with a waveform strip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.InvalidField("index", args[0])
		}

		segs, err := loadSegments()
		if err != nil {
			return err
		}
		s, ok := segment.ByIndex(segs, index)
		if !ok {
			return errors.NotFound("segment", args[0])
		}

		fmt.Println(s.Label())
		fmt.Printf("duration: %s\n", timeutil.FormatDuration(s.Duration()))
		if s.Comment != "" {
			fmt.Printf("comment:  %s\n", s.Comment)
		}
		if s.Content != "" {
			fmt.Printf("content:  %s\n", s.Content)
		}

		if line, err := waveformFor(&s); err == nil {
			fmt.Println(line)
		}
		return nil
	},
}

func loadSegments() ([]segment.Segment, error) {
	dirs, err := config.GetDirs()
	if err != nil {
		return nil, err
	}
	path, err := library.Resolve(nil, dirs, filePath)
	if err != nil {
		return nil, err
	}

	store := marker.NewStore(afero.NewOsFs())
	f, err := store.Load(path)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}
	return segment.FromMarkers(f.Markers), nil
}

// waveformFor renders the segment's slice of the waveform.
func waveformFor(s *segment.Segment) (string, error) {
	dirs, err := config.GetDirs()
	if err != nil {
		return "", err
	}
	path, err := library.Resolve(nil, dirs, filePath)
	if err != nil {
		return "", err
	}

	wav, err := audio.ExtractSegment(path, s.Start, s.End, os.TempDir())
	if err != nil {
		return "", err
	}
	defer audio.CleanupSegment(wav)

	wf, err := audio.ExtractWaveform(wav, audio.WaveformBuckets)
	if err != nil {
		return "", err
	}
	return audio.RenderLine(wf.Peaks, 72), nil
}
