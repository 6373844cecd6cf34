// Package timeutil formats playback positions the way the player displays
// them: minutes, seconds and centiseconds (mm:ss.cc).
package timeutil

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"mp3player/internal/app/errors"
)

var timeRegexp = regexp.MustCompile(`^(\d+):([0-5]?\d)(?:\.(\d{1,2}))?$`)

// Format renders seconds as mm:ss.cc. Negative values clamp to zero.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Round(seconds * 100))
	minutes := total / 6000
	secs := (total % 6000) / 100
	centis := total % 100
	return fmt.Sprintf("%02d:%02d.%02d", minutes, secs, centis)
}

// Parse converts a mm:ss.cc (or mm:ss) string back to seconds.
func Parse(s string) (float64, error) {
	m := timeRegexp.FindStringSubmatch(s)
	if m == nil {
		return 0, errors.InvalidField("time", "expected mm:ss.cc")
	}

	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errors.InvalidField("time", "bad minutes")
	}
	secs, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, errors.InvalidField("time", "bad seconds")
	}

	centis := 0
	if m[3] != "" {
		frac := m[3]
		if len(frac) == 1 {
			frac += "0"
		}
		centis, err = strconv.Atoi(frac)
		if err != nil {
			return 0, errors.InvalidField("time", "bad centiseconds")
		}
	}

	return float64(minutes)*60 + float64(secs) + float64(centis)/100, nil
}

// FormatDuration renders whole seconds as h:mm:ss or mm:ss for short values,
// used by library listings where centiseconds are noise.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
