package convo

// ForwardDiff is the recorded effect of a turn on the working directory:
// unified-diff text for display, plus the git tree hashes captured by
// internal/snapshot before and after the turn ran — TreeHash is the
// undo anchor (restore to revert the turn), PostTreeHash is the redo
// anchor (restore to reapply it).
type ForwardDiff struct {
	UnifiedText  string
	TreeHash     string
	PostTreeHash string
}

func (d ForwardDiff) IsZero() bool {
	return d.UnifiedText == "" && d.TreeHash == "" && d.PostTreeHash == ""
}

// UndoTask is what one completed turn contributes to the undo stack: its
// turn id, the messages it appended (a contiguous turn_id-keyed range of
// the conversation log — not a role-based walk-back, since a turn may
// append any number of assistant/tool messages before handing control
// back), and the diff needed to revert its filesystem effects.
type UndoTask struct {
	TurnID      int
	Messages    []Message
	ForwardDiff ForwardDiff
}

// History holds the message log plus the undo/redo stacks derived from
// it. Undo cuts the popped task's trailing turn_id range off Log; Redo
// appends the task's messages back.
type History struct {
	Log  []Message
	undo []UndoTask
	redo []UndoTask
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{}
}

// Append adds a message to the log.
func (h *History) Append(m Message) {
	h.Log = append(h.Log, m)
}

// PushTurn records a completed turn's UndoTask and clears the redo stack,
// per the standard undo/redo discipline (a new turn invalidates any
// previously-undone future).
func (h *History) PushTurn(task UndoTask) {
	h.undo = append(h.undo, task)
	h.redo = nil
}

// CanUndo reports whether there is a turn to undo.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether there is a turn to redo.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Undo pops the most recent UndoTask, pushes it to the redo stack, and
// removes its messages from the log (keyed by turn_id — every message
// whose TurnID equals task.TurnID is dropped from the tail of Log, which
// holds because turns append contiguously and are undone in LIFO order).
// It returns the popped task so the caller can revert the filesystem via
// internal/snapshot. ok is false if there is nothing to undo.
func (h *History) Undo() (task UndoTask, ok bool) {
	if len(h.undo) == 0 {
		return UndoTask{}, false
	}
	last := len(h.undo) - 1
	task = h.undo[last]
	h.undo = h.undo[:last]
	h.redo = append(h.redo, task)

	h.Log = removeTurnRange(h.Log, task.TurnID)
	return task, true
}

// Redo pops the most recently undone UndoTask, re-appends its messages to
// the log, and pushes it back onto the undo stack.
func (h *History) Redo() (task UndoTask, ok bool) {
	if len(h.redo) == 0 {
		return UndoTask{}, false
	}
	last := len(h.redo) - 1
	task = h.redo[last]
	h.redo = h.redo[:last]
	h.undo = append(h.undo, task)

	h.Log = append(h.Log, task.Messages...)
	return task, true
}

// removeTurnRange drops every trailing message in log whose TurnID
// matches turnID.
func removeTurnRange(log []Message, turnID int) []Message {
	end := len(log)
	start := end
	for start > 0 && log[start-1].TurnID == turnID {
		start--
	}
	out := make([]Message, start)
	copy(out, log[:start])
	return out
}
