package player

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp3player/internal/app/marker"
)

func testManager() *marker.Manager {
	return marker.NewManager(300)
}

func TestValidSpeed(t *testing.T) {
	for _, s := range SpeedValues {
		assert.True(t, ValidSpeed(s), "speed %v should be valid", s)
	}
	assert.False(t, ValidSpeed(0.9))
	assert.False(t, ValidSpeed(4.0))
	assert.False(t, ValidSpeed(0))
}

func TestSpeedStepping(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		next    float64
		prev    float64
	}{
		{"from normal", 1.0, 1.2, 0.8},
		{"bottom clamps", 0.5, 0.6, 0.5},
		{"top clamps", 3.0, 3.0, 2.5},
		{"between entries", 0.9, 1.0, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.next, NextSpeed(tt.current))
			assert.Equal(t, tt.prev, PrevSpeed(tt.current))
		})
	}
}

func TestSpeedForDigit(t *testing.T) {
	tests := []struct {
		key   rune
		speed float64
		ok    bool
	}{
		{'1', 0.5, true},
		{'5', 1.0, true},
		{'9', 2.2, true},
		{'0', 2.5, true},
		{'a', 0, false},
		{' ', 0, false},
	}

	for _, tt := range tests {
		speed, ok := speedForDigit(tt.key)
		assert.Equal(t, tt.ok, ok, "key %q", tt.key)
		if ok {
			assert.Equal(t, tt.speed, speed, "key %q", tt.key)
		}
	}
}

func TestCycleLoops(t *testing.T) {
	got := []int{1}
	cur := 1
	for i := 0; i < 6; i++ {
		cur = cycleLoops(cur)
		got = append(got, cur)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, InfiniteLoops, 1}, got)
}

func TestLoopLabel(t *testing.T) {
	assert.Equal(t, "2/5", LoopLabel(2, 5))
	assert.Equal(t, "3/∞", LoopLabel(3, InfiniteLoops))
}

func TestSegmentOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    SegmentOptions
		wantErr bool
	}{
		{"valid single", SegmentOptions{Start: 0, End: 10, Loops: 1}, false},
		{"valid max loops", SegmentOptions{Start: 5, End: 6, Loops: MaxLoops}, false},
		{"valid infinite", SegmentOptions{Start: 5, End: 6, Loops: InfiniteLoops}, false},
		{"end before start", SegmentOptions{Start: 10, End: 5, Loops: 1}, true},
		{"zero loops", SegmentOptions{Start: 0, End: 10, Loops: 0}, true},
		{"too many loops", SegmentOptions{Start: 0, End: 10, Loops: MaxLoops + 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSegmentOptionsPreviewDefault(t *testing.T) {
	opts := SegmentOptions{Start: 0, End: 60, Loops: 1, Preview: true}
	require.NoError(t, opts.validate())
	assert.Equal(t, DefaultPreviewSeconds, opts.PreviewSeconds)
}

func TestDecodeKeys(t *testing.T) {
	keys := make(chan rune, 16)
	go decodeKeys(strings.NewReader("a \x1b[C\x1b[A\x1b[B\x1b[Dq"), keys)

	var got []rune
	for k := range keys {
		got = append(got, k)
	}
	assert.Equal(t, []rune{'a', ' ', keyRight, keyUp, keyDown, keyLeft, 'q'}, got)
}

func TestWaveformLine(t *testing.T) {
	peaks := []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0, 0.8, 0.6, 0.4, 0.2}

	t.Run("cursor at position", func(t *testing.T) {
		line := []rune(waveformLine(peaks, 50, 100, 10))
		require.Len(t, line, 10)
		assert.Equal(t, '┃', line[5])
	})

	t.Run("cursor clamped to end", func(t *testing.T) {
		line := []rune(waveformLine(peaks, 120, 100, 10))
		assert.Equal(t, '┃', line[9])
	})

	t.Run("no peaks renders rule", func(t *testing.T) {
		line := waveformLine(nil, 0, 100, 20)
		assert.Equal(t, strings.Repeat("─", 20), line)
	})
}

func TestStatusLineTruncates(t *testing.T) {
	c := &Console{speed: 1.0, loops: 1}
	c.markers = testManager()
	line := c.statusLine(12.5, true, 40)
	assert.LessOrEqual(t, len([]rune(line)), 40)
	assert.Contains(t, line, "⏸")
}
