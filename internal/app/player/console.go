package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"mp3player/internal/app/audio"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/marker"
	"mp3player/internal/app/segment"
	"mp3player/internal/app/timeutil"
)

// ErrInteractiveRequiresTTY is returned when the console is started without
// a terminal on stdin.
var ErrInteractiveRequiresTTY = errors.New("interactive playback requires terminal input")

// Control keys decoded from escape sequences.
const (
	keyUp rune = -(iota + 1)
	keyDown
	keyLeft
	keyRight
)

const (
	seekStepSmall = 5.0
	seekStepLarge = 30.0
	ctrlC         = 0x03
)

// Console is the interactive terminal UI around a running player: playback
// controls, marker editing with undo, and segment navigation on one keyboard.
type Console struct {
	player  *Player
	markers *marker.Manager
	store   *marker.Store
	log     *zap.Logger
	out     io.Writer
	in      io.Reader

	segments []segment.Segment
	peaks    []float64
	loops    int
	speed    float64
	duration float64
	dirty    bool
	showHelp bool
	message  string
}

// NewConsole wires a console around a started player and its marker set.
func NewConsole(p *Player, mgr *marker.Manager, store *marker.Store, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Console{
		player:  p,
		markers: mgr,
		store:   store,
		log:     log,
		out:     os.Stdout,
		in:      os.Stdin,
		loops:   1,
		speed:   1.0,
	}
	c.segments = segment.FromMarkers(mgr.Markers())
	mgr.OnChange(func() {
		c.segments = segment.Recalculate(c.segments, c.markers.Markers())
		c.dirty = true
	})
	return c
}

// SetWaveform supplies peak data for the waveform strip.
func (c *Console) SetWaveform(peaks []float64) { c.peaks = peaks }

// Run drives the console until quit or cancellation. Stdin is switched to
// raw mode for the duration.
func (c *Console) Run(ctx context.Context) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ErrInteractiveRequiresTTY
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(c.out, "\r\n")
	}()

	c.duration, err = c.player.Duration(ctx)
	if err != nil {
		return err
	}

	keys := make(chan rune, 8)
	go decodeKeys(c.in, keys)

	ticker := time.NewTicker(UpdateInterval)
	defer ticker.Stop()

	fmt.Fprint(c.out, "\r\n\r\n")
	for {
		select {
		case <-ctx.Done():
			_ = c.player.Pause(context.Background())
			return ctx.Err()
		case <-ticker.C:
			c.render()
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			quit, err := c.handleKey(ctx, k)
			if err != nil {
				c.message = err.Error()
				c.log.Warn("key handling failed", zap.Error(err))
			}
			if quit {
				c.render()
				return nil
			}
			c.render()
		}
	}
}

func (c *Console) handleKey(ctx context.Context, k rune) (quit bool, err error) {
	c.message = ""
	switch k {
	case 'q', ctrlC:
		return true, c.quit(ctx)
	case ' ':
		_, err = c.player.TogglePause(ctx)
	case keyLeft:
		err = c.player.SeekRelative(ctx, -seekStepSmall)
	case keyRight:
		err = c.player.SeekRelative(ctx, seekStepSmall)
	case keyUp:
		err = c.player.SeekRelative(ctx, seekStepLarge)
	case keyDown:
		err = c.player.SeekRelative(ctx, -seekStepLarge)
	case '[':
		err = c.seekSegment(ctx, false)
	case ']':
		err = c.seekSegment(ctx, true)
	case 'm':
		err = c.addMarkerAtPosition(ctx)
	case 'u':
		err = c.markers.Undo()
	case 'U':
		err = c.markers.Redo()
	case 's':
		err = c.save()
	case 'p':
		err = c.playCurrentSegment(ctx)
	case 'P':
		err = c.previewCurrentSegment(ctx)
	case 'l':
		c.loops = cycleLoops(c.loops)
	case '-':
		err = c.setSpeed(ctx, PrevSpeed(c.speed))
	case '=', '+':
		err = c.setSpeed(ctx, NextSpeed(c.speed))
	case 'h', '?':
		c.showHelp = !c.showHelp
	default:
		if speed, ok := speedForDigit(k); ok {
			err = c.setSpeed(ctx, speed)
		}
	}
	return false, err
}

func (c *Console) quit(ctx context.Context) error {
	_ = c.player.Pause(ctx)
	if c.dirty {
		return c.save()
	}
	return nil
}

func (c *Console) save() error {
	segment.SyncToMarkers(c.segments, c.markers)
	if err := c.store.Save(c.player.FilePath(), c.markers); err != nil {
		return err
	}
	c.dirty = false
	c.message = "markers saved"
	return nil
}

func (c *Console) setSpeed(ctx context.Context, speed float64) error {
	if err := c.player.SetSpeed(ctx, speed); err != nil {
		return err
	}
	c.speed = speed
	return nil
}

func (c *Console) addMarkerAtPosition(ctx context.Context) error {
	pos, err := c.player.Position(ctx)
	if err != nil {
		return err
	}
	m, err := c.markers.Add(pos)
	if err != nil {
		return err
	}
	c.message = fmt.Sprintf("added %s at %s", m.Name, timeutil.Format(m.Time))
	return nil
}

func (c *Console) seekSegment(ctx context.Context, forward bool) error {
	pos, err := c.player.Position(ctx)
	if err != nil {
		return err
	}
	var seg segment.Segment
	var ok bool
	if forward {
		seg, ok = segment.Next(c.segments, pos)
	} else {
		seg, ok = segment.Previous(c.segments, pos)
	}
	if !ok {
		return errors.ErrSegmentNotFound
	}
	c.message = seg.Label()
	return c.player.Seek(ctx, seg.Start)
}

func (c *Console) playCurrentSegment(ctx context.Context) error {
	return c.loopCurrentSegment(ctx, false)
}

func (c *Console) previewCurrentSegment(ctx context.Context) error {
	return c.loopCurrentSegment(ctx, true)
}

func (c *Console) loopCurrentSegment(ctx context.Context, preview bool) error {
	pos, err := c.player.Position(ctx)
	if err != nil {
		return err
	}
	seg, ok := segment.At(c.segments, pos)
	if !ok {
		return errors.ErrSegmentNotFound
	}
	c.message = "looping " + seg.Label()
	return c.player.PlaySegment(ctx, SegmentOptions{
		Start:   seg.Start,
		End:     seg.End,
		Loops:   c.loops,
		Preview: preview,
		OnTick: func(st LoopStatus) {
			c.message = fmt.Sprintf("loop %s  %s", LoopLabel(st.Loop, st.Total), seg.Label())
			c.render()
		},
	})
}

func (c *Console) render() {
	width := c.terminalWidth()

	pos, err := c.player.Position(context.Background())
	if err != nil {
		pos = 0
	}
	paused, _ := c.player.IsPaused(context.Background())

	// Two-line display: waveform strip above, status below. Cursor is
	// parked on the status line between renders.
	fmt.Fprint(c.out, "\x1b[1A\r\x1b[2K")
	fmt.Fprint(c.out, waveformLine(c.peaks, pos, c.duration, width))
	fmt.Fprint(c.out, "\r\n\x1b[2K")
	fmt.Fprint(c.out, c.statusLine(pos, paused, width))
}

func (c *Console) statusLine(pos float64, paused bool, width int) string {
	state := "▶"
	if paused {
		state = "⏸"
	}
	var seg string
	if s, ok := segment.At(c.segments, pos); ok {
		seg = fmt.Sprintf("seg %d/%d", s.Index, len(c.segments))
	}

	parts := []string{
		state,
		fmt.Sprintf("%s / %s", timeutil.Format(pos), timeutil.Format(c.duration)),
		fmt.Sprintf("%.1fx", c.speed),
		fmt.Sprintf("loop %s", loopsLabel(c.loops)),
		seg,
		fmt.Sprintf("markers %d", len(c.markers.UserMarkers())),
	}
	if c.dirty {
		parts = append(parts, "[unsaved]")
	}
	if c.message != "" {
		parts = append(parts, c.message)
	}
	if c.showHelp {
		parts = append(parts, helpText)
	}

	line := strings.Join(nonEmpty(parts), "  ")
	if len([]rune(line)) > width {
		line = string([]rune(line)[:width])
	}
	return line
}

const helpText = "space:pause ←→:±5s ↑↓:±30s [ ]:segments m:marker u/U:undo/redo 1-0:speed l:loops p:play P:preview s:save q:quit"

func (c *Console) terminalWidth() int {
	if f, ok := c.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}

// waveformLine renders the peak strip with a position cursor overlaid.
func waveformLine(peaks []float64, pos, duration float64, width int) string {
	if width < 10 {
		width = 10
	}
	if len(peaks) == 0 || duration <= 0 {
		return strings.Repeat("─", width)
	}
	line := []rune(audio.RenderLine(peaks, width))
	idx := int(pos / duration * float64(len(line)))
	if idx >= len(line) {
		idx = len(line) - 1
	}
	if idx >= 0 {
		line[idx] = '┃'
	}
	return string(line)
}

// speedForDigit maps keys 1..9,0 onto the first ten speed table entries.
func speedForDigit(k rune) (float64, bool) {
	if k < '0' || k > '9' {
		return 0, false
	}
	idx := int(k - '1')
	if k == '0' {
		idx = 9
	}
	if idx >= len(SpeedValues) {
		return 0, false
	}
	return SpeedValues[idx], true
}

// cycleLoops advances 1→2→…→MaxLoops→∞→1.
func cycleLoops(current int) int {
	if current == InfiniteLoops {
		return 1
	}
	if current >= MaxLoops {
		return InfiniteLoops
	}
	return current + 1
}

func loopsLabel(loops int) string {
	if loops == InfiniteLoops {
		return "∞"
	}
	return fmt.Sprintf("%dx", loops)
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// decodeKeys reads raw-mode bytes and emits runes, folding ANSI arrow
// sequences into the key* constants.
func decodeKeys(r io.Reader, keys chan<- rune) {
	defer close(keys)
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		if b != 0x1b {
			keys <- rune(b)
			continue
		}
		seq, err := br.Peek(2)
		if err != nil || len(seq) < 2 || seq[0] != '[' {
			keys <- rune(b)
			continue
		}
		_, _ = br.Discard(2)
		switch seq[1] {
		case 'A':
			keys <- keyUp
		case 'B':
			keys <- keyDown
		case 'C':
			keys <- keyRight
		case 'D':
			keys <- keyLeft
		}
	}
}
