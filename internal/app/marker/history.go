package marker

// MaxHistory bounds the undo and redo stacks.
const MaxHistory = 50

type actionKind int

const (
	actionAdd actionKind = iota
	actionMove
	actionDelete
	actionDeleteAll
)

// action records one undoable mutation. Moves are tracked by time rather
// than name because renumbering can rename markers between record and undo.
type action struct {
	kind    actionKind
	marker  Marker
	markers []Marker
	oldTime float64
	newTime float64
}

type history struct {
	undo []action
	redo []action
}

// record pushes a new mutation and invalidates the redo stack.
func (h *history) record(act action) {
	h.pushUndo(act)
	h.redo = nil
}

func (h *history) pushUndo(act action) {
	h.undo = append(h.undo, act)
	if len(h.undo) > MaxHistory {
		h.undo = h.undo[len(h.undo)-MaxHistory:]
	}
}

func (h *history) pushRedo(act action) {
	h.redo = append(h.redo, act)
	if len(h.redo) > MaxHistory {
		h.redo = h.redo[len(h.redo)-MaxHistory:]
	}
}

func (h *history) popUndo() (action, bool) {
	if len(h.undo) == 0 {
		return action{}, false
	}
	act := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return act, true
}

func (h *history) popRedo() (action, bool) {
	if len(h.redo) == 0 {
		return action{}, false
	}
	act := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return act, true
}

// applyInverse undoes act against the current marker set.
func (mgr *Manager) applyInverse(act action) {
	switch act.kind {
	case actionAdd:
		mgr.removeAt(act.marker.Time)
	case actionMove:
		mgr.moveAt(act.newTime, act.oldTime)
	case actionDelete:
		mgr.insert(act.marker)
	case actionDeleteAll:
		for _, m := range act.markers {
			mgr.insert(m)
		}
	}
}

// apply re-applies act, used by redo.
func (mgr *Manager) apply(act action) {
	switch act.kind {
	case actionAdd:
		mgr.insert(act.marker)
	case actionMove:
		mgr.moveAt(act.oldTime, act.newTime)
	case actionDelete:
		mgr.removeAt(act.marker.Time)
	case actionDeleteAll:
		for _, m := range act.markers {
			mgr.removeAt(m.Time)
		}
	}
}

func (mgr *Manager) removeAt(t float64) {
	for i, m := range mgr.markers {
		if !m.Fixed() && m.Time == t {
			mgr.markers = append(mgr.markers[:i], mgr.markers[i+1:]...)
			mgr.renumber()
			return
		}
	}
}

func (mgr *Manager) moveAt(from, to float64) {
	for i, m := range mgr.markers {
		if !m.Fixed() && m.Time == from {
			mgr.markers[i].Time = to
			mgr.renumber()
			return
		}
	}
}

func (mgr *Manager) insert(m Marker) {
	mgr.markers = append(mgr.markers, m)
	mgr.renumber()
}
