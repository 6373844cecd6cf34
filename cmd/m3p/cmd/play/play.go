package play

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mp3player/internal/app"
	"mp3player/internal/app/audio"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/library"
	"mp3player/internal/app/marker"
	"mp3player/internal/app/player"
	"mp3player/internal/config"
)

var (
	filePath string
	speed    float64
	waveform bool
)

func init() {
	Cmd.Flags().StringVarP(&filePath, "file", "f", "", "MP3 file to play (relative paths resolve against the files directory)")
	Cmd.Flags().Float64Var(&speed, "speed", 1.0, "initial playback speed")
	Cmd.Flags().BoolVar(&waveform, "waveform", true, "render the waveform strip (requires ffmpeg)")

	Cmd.MarkFlagRequired("file")
}

// Cmd represents the play command
var Cmd = &cobra.Command{
	Use:   "play",
	Short: "Play an MP3 interactively with markers and segment loops",
	Long: `Play an MP3 in an interactive terminal session: place markers, loop
segments at variable speed, and save the marker sidecar. Requires mpv.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !player.Available("mpv") {
			return errors.New("mpv not found in PATH")
		}
		if !player.ValidSpeed(speed) {
			return errors.InvalidField("speed", fmt.Sprintf("%v not in the speed table", speed))
		}

		dirs, err := config.GetDirs()
		if err != nil {
			return err
		}
		path, err := library.Resolve(nil, dirs, filePath)
		if err != nil {
			return err
		}

		// The interactive UI owns the terminal, so logs go to file only.
		a, cleanup, err := app.InitializeApp(app.Options{
			FileOnlyLog:   true,
			SkipProviders: true,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		duration, err := audio.Duration(path)
		if err != nil {
			return errors.Wrapf(err, "probe %s", path)
		}

		store := marker.NewStore(a.FS)
		mgr, err := store.LoadManager(path, duration)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		p := player.New(path, a.Log)
		if err := p.Start(ctx); err != nil {
			return err
		}
		defer p.Stop()

		if speed != 1.0 {
			if err := p.SetSpeed(ctx, speed); err != nil {
				a.Log.Warn("setting initial speed", zap.Error(err))
			}
		}

		console := player.NewConsole(p, mgr, store, a.Log)
		if waveform {
			if peaks, err := loadWaveform(path); err != nil {
				a.Log.Warn("waveform unavailable", zap.Error(err))
			} else {
				console.SetWaveform(peaks)
			}
		}

		if err := console.Run(ctx); err != nil {
			if errors.Is(err, player.ErrInteractiveRequiresTTY) {
				return errors.Wrap(err, "run m3p play from a terminal")
			}
			return err
		}
		return nil
	},
}

func loadWaveform(path string) ([]float64, error) {
	wav, err := audio.ConvertTo16kHzWav(path)
	if err != nil {
		return nil, err
	}
	defer os.Remove(wav)

	wf, err := audio.ExtractWaveform(wav, audio.WaveformBuckets)
	if err != nil {
		return nil, err
	}
	return wf.Peaks, nil
}
