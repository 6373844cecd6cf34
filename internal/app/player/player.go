package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mp3player/internal/app/errors"
)

const (
	// UpdateInterval is the position poll period during playback.
	UpdateInterval = 250 * time.Millisecond
	// EndTolerance widens end-of-file detection when a segment ends at or
	// near the file's duration.
	EndTolerance = 0.5
	// DefaultPreviewSeconds is how much of a segment preview mode plays.
	DefaultPreviewSeconds = 8.0
	// InfiniteLoops loops a segment until cancelled.
	InfiniteLoops = -1
	// MaxLoops is the largest finite loop count.
	MaxLoops = 5

	stopGrace = 2 * time.Second
)

// SpeedValues is the selectable playback speed table.
var SpeedValues = []float64{0.5, 0.6, 0.7, 0.8, 1.0, 1.2, 1.5, 2.0, 2.2, 2.5, 3.0}

// ValidSpeed reports whether v is in the speed table.
func ValidSpeed(v float64) bool {
	for _, s := range SpeedValues {
		if s == v {
			return true
		}
	}
	return false
}

// NextSpeed returns the table entry above current, clamped at the top.
func NextSpeed(current float64) float64 {
	for _, s := range SpeedValues {
		if s > current {
			return s
		}
	}
	return SpeedValues[len(SpeedValues)-1]
}

// PrevSpeed returns the table entry below current, clamped at the bottom.
func PrevSpeed(current float64) float64 {
	for i := len(SpeedValues) - 1; i >= 0; i-- {
		if SpeedValues[i] < current {
			return SpeedValues[i]
		}
	}
	return SpeedValues[0]
}

// Available reports whether the mpv binary is on PATH.
func Available(binary string) bool {
	if binary == "" {
		binary = "mpv"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// Player owns one mpv process playing one file, controlled over IPC.
type Player struct {
	filePath   string
	mpvBinary  string
	socketPath string
	log        *zap.Logger

	client *Client
	cmd    *exec.Cmd
	done   chan error
}

// New prepares a player for filePath. Call Start to spawn mpv.
func New(filePath string, log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	socketPath := filepath.Join(os.TempDir(), "mpv_ipc_"+uuid.NewString()[:8])
	return &Player{
		filePath:   filePath,
		mpvBinary:  "mpv",
		socketPath: socketPath,
		log:        log,
		client:     NewClient(socketPath, log),
	}
}

// SetBinary overrides the mpv executable path.
func (p *Player) SetBinary(path string) {
	if path != "" {
		p.mpvBinary = path
	}
}

// FilePath returns the file this player was created for.
func (p *Player) FilePath() string { return p.filePath }

// Client exposes the underlying IPC client.
func (p *Player) Client() *Client { return p.client }

// Start spawns mpv paused on the file and connects to its IPC socket.
func (p *Player) Start(ctx context.Context) error {
	if p.cmd != nil {
		return fmt.Errorf("player already started")
	}
	if _, err := os.Stat(p.filePath); err != nil {
		return errors.Wrap(errors.ErrFileNotFound, p.filePath)
	}

	cmd := exec.Command(p.mpvBinary,
		"--no-video",
		"--input-ipc-server="+p.socketPath,
		"--idle=yes",
		"--really-quiet",
		"--pause=yes",
		"--input-terminal=no",
		p.filePath)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}
	p.cmd = cmd
	p.done = make(chan error, 1)
	go func() {
		p.done <- cmd.Wait()
	}()

	p.log.Info("started mpv",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("socket", p.socketPath),
		zap.String("file", p.filePath))

	if err := p.client.WaitForSocket(ctx); err != nil {
		p.log.Error("mpv socket never appeared", zap.Error(err))
		_ = p.terminate()
		return err
	}
	return nil
}

// Stop quits mpv, escalating to signals if the quit command is ignored.
func (p *Player) Stop() error {
	if p.cmd == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
	_, _ = p.client.Send(ctx, "quit")
	cancel()
	_ = p.client.Close()

	select {
	case err := <-p.done:
		p.cleanup()
		return ignoreExitError(err)
	case <-time.After(stopGrace):
	}
	return p.terminate()
}

func (p *Player) terminate() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	_ = p.cmd.Process.Signal(os.Interrupt)
	select {
	case err := <-p.done:
		p.cleanup()
		return ignoreExitError(err)
	case <-time.After(time.Second):
		_ = p.cmd.Process.Kill()
		err := <-p.done
		p.cleanup()
		return ignoreExitError(err)
	}
}

func (p *Player) cleanup() {
	_ = os.Remove(p.socketPath)
	p.cmd = nil
}

// Running reports whether the mpv process is alive.
func (p *Player) Running() bool {
	if p.cmd == nil {
		return false
	}
	select {
	case err := <-p.done:
		p.done <- err
		return false
	default:
		return true
	}
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	return p.client.SetProperty(ctx, "pause", true)
}

// Resume resumes playback.
func (p *Player) Resume(ctx context.Context) error {
	return p.client.SetProperty(ctx, "pause", false)
}

// TogglePause flips the pause state and returns the new state.
func (p *Player) TogglePause(ctx context.Context) (bool, error) {
	paused, err := p.IsPaused(ctx)
	if err != nil {
		return false, err
	}
	if err := p.client.SetProperty(ctx, "pause", !paused); err != nil {
		return paused, err
	}
	return !paused, nil
}

// IsPaused reads the pause state.
func (p *Player) IsPaused(ctx context.Context) (bool, error) {
	return p.client.GetBool(ctx, "pause")
}

// Seek jumps to an absolute position in seconds.
func (p *Player) Seek(ctx context.Context, seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	_, err := p.client.SendWithRetry(ctx, "seek", seconds, "absolute")
	return err
}

// SeekRelative jumps by a signed offset in seconds.
func (p *Player) SeekRelative(ctx context.Context, delta float64) error {
	_, err := p.client.SendWithRetry(ctx, "seek", delta, "relative")
	return err
}

// SetSpeed sets the playback speed to a table value.
func (p *Player) SetSpeed(ctx context.Context, speed float64) error {
	if !ValidSpeed(speed) {
		return errors.InvalidField("speed", fmt.Sprintf("%.2f not in speed table", speed))
	}
	return p.client.SetProperty(ctx, "speed", speed)
}

// Speed reads the current playback speed.
func (p *Player) Speed(ctx context.Context) (float64, error) {
	return p.client.GetFloat(ctx, "speed")
}

// Position reads the current playback position in seconds.
func (p *Player) Position(ctx context.Context) (float64, error) {
	return p.client.GetFloat(ctx, "time-pos")
}

// Duration reads the file duration in seconds.
func (p *Player) Duration(ctx context.Context) (float64, error) {
	return p.client.GetFloat(ctx, "duration")
}

func ignoreExitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
