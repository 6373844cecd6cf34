// Package segment derives playback segments from marker pairs. N markers
// produce N-1 segments; segment contents (transcripts) are preserved by
// interval when the marker set changes, not by marker identity.
package segment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"mp3player/internal/app/marker"
	"mp3player/internal/app/timeutil"
)

// eps absorbs float drift when comparing marker times.
const eps = 1e-6

type Segment struct {
	Index   int     `json:"index"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Comment string  `json:"comment,omitempty"`
	Content string  `json:"content,omitempty"`
}

func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Label renders the listing form: "Segment 2 [00:10.00 - 00:20.00]".
func (s Segment) Label() string {
	return fmt.Sprintf("Segment %d [%s - %s]", s.Index,
		timeutil.Format(s.Start), timeutil.Format(s.End))
}

// Contains reports whether t falls inside the segment, boundaries included.
func (s Segment) Contains(t float64) bool {
	return t >= s.Start-eps && t <= s.End+eps
}

// FromMarkers builds the segment list off consecutive marker pairs. Comment
// and content are seeded from each segment's opening marker, which is how
// the sidecar persists them.
func FromMarkers(markers []marker.Marker) []Segment {
	if len(markers) < 2 {
		return nil
	}
	sorted := make([]marker.Marker, len(markers))
	copy(sorted, markers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	segments := make([]Segment, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		segments = append(segments, Segment{
			Index:   i + 1,
			Start:   sorted[i].Time,
			End:     sorted[i+1].Time,
			Comment: sorted[i].Comment,
			Content: sorted[i].Content,
		})
	}
	return segments
}

// Recalculate rebuilds the segment list for the new marker set while
// carrying contents over from the previous list:
//   - an interval that survives unchanged keeps its content,
//   - when an interval is split, the piece starting at the old start keeps
//     the content,
//   - when adjacent intervals merge, their contents join with a newline.
func Recalculate(previous []Segment, markers []marker.Marker) []Segment {
	segments := FromMarkers(markers)
	if len(previous) == 0 {
		return segments
	}

	for i := range segments {
		s := &segments[i]
		s.Content = ""
		s.Comment = ""

		if old, ok := exact(previous, s.Start, s.End); ok {
			s.Content = old.Content
			s.Comment = old.Comment
			continue
		}

		if joined, ok := mergePair(previous, s.Start, s.End); ok {
			s.Content = joined
			continue
		}

		// Split: the left piece inherits from the segment it was cut from.
		if old, ok := startingAt(previous, s.Start); ok && old.End > s.End+eps {
			s.Content = old.Content
			s.Comment = old.Comment
		}
	}
	return segments
}

// exact finds a previous segment with the same interval.
func exact(previous []Segment, start, end float64) (Segment, bool) {
	for _, old := range previous {
		if near(old.Start, start) && near(old.End, end) {
			return old, true
		}
	}
	return Segment{}, false
}

// startingAt finds a previous segment opening at start.
func startingAt(previous []Segment, start float64) (Segment, bool) {
	for _, old := range previous {
		if near(old.Start, start) {
			return old, true
		}
	}
	return Segment{}, false
}

// mergePair joins the contents of exactly two adjacent previous segments
// that together cover [start, end], which is what deleting one marker
// produces. Wider merges do not preserve content.
func mergePair(previous []Segment, start, end float64) (string, bool) {
	left, ok := startingAt(previous, start)
	if !ok {
		return "", false
	}
	right, ok := startingAt(previous, left.End)
	if !ok || !near(right.End, end) {
		return "", false
	}

	var parts []string
	if left.Content != "" {
		parts = append(parts, left.Content)
	}
	if right.Content != "" {
		parts = append(parts, right.Content)
	}
	return strings.Join(parts, "\n"), true
}

// At returns the segment containing t. A shared boundary belongs to the
// later segment, so the scan runs back to front.
func At(segments []Segment, t float64) (Segment, bool) {
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i].Contains(t) {
			return segments[i], true
		}
	}
	return Segment{}, false
}

// Next returns the segment after the one containing t.
func Next(segments []Segment, t float64) (Segment, bool) {
	cur, ok := At(segments, t)
	if ok {
		if cur.Index < len(segments) {
			return segments[cur.Index], true
		}
		return Segment{}, false
	}
	for _, s := range segments {
		if s.Start > t {
			return s, true
		}
	}
	return Segment{}, false
}

// Previous returns the segment before the one containing t.
func Previous(segments []Segment, t float64) (Segment, bool) {
	cur, ok := At(segments, t)
	if !ok {
		for i := len(segments) - 1; i >= 0; i-- {
			if t > segments[i].End {
				return segments[i], true
			}
		}
		return Segment{}, false
	}
	if cur.Index <= 1 {
		return Segment{}, false
	}
	return segments[cur.Index-2], true
}

// ByIndex looks a segment up by its 1-based index.
func ByIndex(segments []Segment, index int) (Segment, bool) {
	if index < 1 || index > len(segments) {
		return Segment{}, false
	}
	return segments[index-1], true
}

// SyncToMarkers writes segment contents and comments back onto their
// opening markers so a sidecar save reflects the current segment state.
func SyncToMarkers(segments []Segment, mgr *marker.Manager) {
	markers := mgr.Markers()
	for _, s := range segments {
		for _, m := range markers {
			if near(m.Time, s.Start) {
				_ = mgr.SetComment(m.Name, s.Comment)
				_ = mgr.SetContent(m.Name, s.Content)
				break
			}
		}
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}
