// Package marker manages the time markers placed on an audio file. Two fixed
// markers bracket the file (Marker0 at the start, Marker500 at the end) and
// up to MaxUserMarkers user markers sit between them, renamed Marker1..N in
// time order after every mutation.
package marker

import (
	"fmt"
	"math"
	"sort"

	"mp3player/internal/app/errors"
)

const (
	FixedStartName = "Marker0"
	FixedEndName   = "Marker500"

	// MaxUserMarkers caps the markers a user can place on one file.
	MaxUserMarkers = 100

	// MinGap is the minimum distance in seconds between two user markers.
	MinGap = 1.0

	// EndTolerance keeps user markers away from the very end of the file.
	EndTolerance = 0.5

	// minStartOffset bumps a marker requested at t=0 off the fixed start.
	minStartOffset = 0.001
)

// Marker is a named position on the timeline. Comment is the user's note,
// Content holds the transcript of the segment starting at this marker.
type Marker struct {
	Time    float64 `json:"time"`
	Name    string  `json:"name"`
	Comment string  `json:"comment,omitempty"`
	Content string  `json:"content,omitempty"`
}

// Fixed reports whether m is one of the two protected boundary markers.
func (m Marker) Fixed() bool {
	return m.Name == FixedStartName || m.Name == FixedEndName
}

// ChangeFunc is invoked after every marker mutation so dependent state
// (segments, UI) can recalculate.
type ChangeFunc func()

// Manager owns the marker set for a single audio file.
type Manager struct {
	duration float64
	markers  []Marker
	history  history
	onChange []ChangeFunc
}

// NewManager creates a marker set for a file of the given duration with the
// two fixed boundary markers in place.
func NewManager(duration float64) *Manager {
	if duration < 0 {
		duration = 0
	}
	return &Manager{
		duration: duration,
		markers: []Marker{
			{Time: 0, Name: FixedStartName},
			{Time: duration, Name: FixedEndName},
		},
	}
}

// OnChange registers a callback fired after every mutation.
func (mgr *Manager) OnChange(fn ChangeFunc) {
	mgr.onChange = append(mgr.onChange, fn)
}

// Duration returns the file duration the marker set was built for.
func (mgr *Manager) Duration() float64 {
	return mgr.duration
}

// SetDuration moves the fixed end marker, used once probing finishes.
func (mgr *Manager) SetDuration(duration float64) {
	if duration <= 0 {
		return
	}
	mgr.duration = duration
	for i := range mgr.markers {
		if mgr.markers[i].Name == FixedEndName {
			mgr.markers[i].Time = duration
		}
	}
	mgr.notify()
}

// Markers returns a copy of all markers sorted by time, fixed ones included.
func (mgr *Manager) Markers() []Marker {
	out := make([]Marker, len(mgr.markers))
	copy(out, mgr.markers)
	return out
}

// UserMarkers returns a copy of the non-fixed markers sorted by time.
func (mgr *Manager) UserMarkers() []Marker {
	var out []Marker
	for _, m := range mgr.markers {
		if !m.Fixed() {
			out = append(out, m)
		}
	}
	return out
}

// Get looks a marker up by name.
func (mgr *Manager) Get(name string) (Marker, error) {
	for _, m := range mgr.markers {
		if m.Name == name {
			return m, nil
		}
	}
	return Marker{}, errors.Wrap(errors.ErrMarkerNotFound, name)
}

// Add places a user marker at t. A request at or below zero is bumped to
// minStartOffset; anything closer than EndTolerance to the end is rejected.
func (mgr *Manager) Add(t float64) (Marker, error) {
	t = mgr.clampStart(t)
	if err := mgr.validateTime(t, -1); err != nil {
		return Marker{}, err
	}
	if len(mgr.markers)-2 >= MaxUserMarkers {
		return Marker{}, errors.Wrapf(errors.ErrMarkerLimit, "max %d user markers", MaxUserMarkers)
	}

	m := Marker{Time: t}
	mgr.markers = append(mgr.markers, m)
	mgr.renumber()

	added, _ := mgr.at(t)
	mgr.history.record(action{kind: actionAdd, marker: added})
	mgr.notify()
	return added, nil
}

// Move shifts a user marker to newTime, revalidating against its neighbors.
func (mgr *Manager) Move(name string, newTime float64) (Marker, error) {
	idx := mgr.index(name)
	if idx < 0 {
		return Marker{}, errors.Wrap(errors.ErrMarkerNotFound, name)
	}
	if mgr.markers[idx].Fixed() {
		return Marker{}, errors.Wrap(errors.ErrMarkerProtected, name)
	}

	newTime = mgr.clampStart(newTime)
	if err := mgr.validateTime(newTime, idx); err != nil {
		return Marker{}, err
	}

	oldTime := mgr.markers[idx].Time
	mgr.markers[idx].Time = newTime
	mgr.renumber()

	moved, _ := mgr.at(newTime)
	mgr.history.record(action{kind: actionMove, oldTime: oldTime, newTime: newTime})
	mgr.notify()
	return moved, nil
}

// Nudge moves a marker by a signed delta, used by the interactive player.
func (mgr *Manager) Nudge(name string, delta float64) (Marker, error) {
	m, err := mgr.Get(name)
	if err != nil {
		return Marker{}, err
	}
	return mgr.Move(name, m.Time+delta)
}

// Delete removes a user marker. The fixed boundary markers survive.
func (mgr *Manager) Delete(name string) error {
	idx := mgr.index(name)
	if idx < 0 {
		return errors.Wrap(errors.ErrMarkerNotFound, name)
	}
	if mgr.markers[idx].Fixed() {
		return errors.Wrap(errors.ErrMarkerProtected, name)
	}

	removed := mgr.markers[idx]
	mgr.markers = append(mgr.markers[:idx], mgr.markers[idx+1:]...)
	mgr.renumber()

	mgr.history.record(action{kind: actionDelete, marker: removed})
	mgr.notify()
	return nil
}

// DeleteAll removes every user marker in one undoable step.
func (mgr *Manager) DeleteAll() {
	removed := mgr.UserMarkers()
	if len(removed) == 0 {
		return
	}

	kept := mgr.markers[:0]
	for _, m := range mgr.markers {
		if m.Fixed() {
			kept = append(kept, m)
		}
	}
	mgr.markers = kept
	mgr.renumber()

	mgr.history.record(action{kind: actionDeleteAll, markers: removed})
	mgr.notify()
}

// SetComment attaches a note to a marker. Comments are not tracked by undo.
func (mgr *Manager) SetComment(name, comment string) error {
	idx := mgr.index(name)
	if idx < 0 {
		return errors.Wrap(errors.ErrMarkerNotFound, name)
	}
	mgr.markers[idx].Comment = comment
	return nil
}

// SetContent stores a transcript on the marker opening a segment.
func (mgr *Manager) SetContent(name, content string) error {
	idx := mgr.index(name)
	if idx < 0 {
		return errors.Wrap(errors.ErrMarkerNotFound, name)
	}
	mgr.markers[idx].Content = content
	return nil
}

// SetContentAt stores content on the marker at exactly time t.
func (mgr *Manager) SetContentAt(t float64, content string) error {
	m, ok := mgr.at(t)
	if !ok {
		return errors.Wrapf(errors.ErrMarkerNotFound, "at %.3f", t)
	}
	return mgr.SetContent(m.Name, content)
}

// Undo reverts the most recent mutation.
func (mgr *Manager) Undo() error {
	act, ok := mgr.history.popUndo()
	if !ok {
		return errors.ErrNothingToUndo
	}
	mgr.applyInverse(act)
	mgr.history.pushRedo(act)
	mgr.notify()
	return nil
}

// Redo re-applies the most recently undone mutation.
func (mgr *Manager) Redo() error {
	act, ok := mgr.history.popRedo()
	if !ok {
		return errors.ErrNothingToRedo
	}
	mgr.apply(act)
	mgr.history.pushUndo(act)
	mgr.notify()
	return nil
}

// CanUndo reports whether an undo step is available.
func (mgr *Manager) CanUndo() bool { return len(mgr.history.undo) > 0 }

// CanRedo reports whether a redo step is available.
func (mgr *Manager) CanRedo() bool { return len(mgr.history.redo) > 0 }

// Restore loads user markers from a saved sidecar without validation or
// history. Times beyond the current duration are clamped.
func (mgr *Manager) Restore(markers []Marker) {
	kept := mgr.markers[:0]
	for _, m := range mgr.markers {
		if m.Fixed() {
			kept = append(kept, m)
		}
	}
	mgr.markers = kept

	for _, m := range markers {
		if m.Fixed() {
			continue
		}
		if mgr.duration > 0 && m.Time > mgr.duration-EndTolerance {
			m.Time = mgr.duration - EndTolerance
		}
		m.Time = mgr.clampStart(m.Time)
		mgr.markers = append(mgr.markers, m)
	}
	mgr.renumber()
	mgr.history = history{}
	mgr.notify()
}

func (mgr *Manager) clampStart(t float64) float64 {
	if t < minStartOffset {
		return minStartOffset
	}
	return t
}

// validateTime checks range and spacing. exclude is the index of a marker
// being moved, or -1.
func (mgr *Manager) validateTime(t float64, exclude int) error {
	if mgr.duration > 0 && t > mgr.duration-EndTolerance {
		return errors.Wrapf(errors.ErrMarkerOutOfRange,
			"%.3f is within %.1fs of the end", t, EndTolerance)
	}
	for i, m := range mgr.markers {
		if i == exclude || m.Fixed() {
			continue
		}
		if math.Abs(m.Time-t) < MinGap {
			return errors.Wrapf(errors.ErrMarkerTooClose,
				"%.3f is within %.1fs of %s", t, MinGap, m.Name)
		}
	}
	return nil
}

// renumber sorts by time and renames user markers Marker1..N. The fixed end
// marker always sorts last, even when a user marker shares its timestamp.
func (mgr *Manager) renumber() {
	sort.SliceStable(mgr.markers, func(i, j int) bool {
		a, b := mgr.markers[i], mgr.markers[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Name == FixedStartName || b.Name == FixedEndName {
			return true
		}
		return false
	})
	n := 0
	for i := range mgr.markers {
		if mgr.markers[i].Fixed() {
			continue
		}
		n++
		mgr.markers[i].Name = fmt.Sprintf("Marker%d", n)
	}
}

func (mgr *Manager) index(name string) int {
	for i, m := range mgr.markers {
		if m.Name == name {
			return i
		}
	}
	return -1
}

func (mgr *Manager) at(t float64) (Marker, bool) {
	for _, m := range mgr.markers {
		if math.Abs(m.Time-t) < 1e-9 && !m.Fixed() {
			return m, true
		}
	}
	return Marker{}, false
}

func (mgr *Manager) notify() {
	for _, fn := range mgr.onChange {
		fn()
	}
}
