package chat

import "staffrag/pkg/model"

// DefaultMaxTurns is the conversation window kept for prompt assembly.
const DefaultMaxTurns = 3

// History is a FIFO-bounded log of completed conversation turns. It is not
// persisted; the conversation lives and dies with the session. Only the
// session mutates it, with at most one query in flight, so no locking is
// needed.
type History struct {
	maxTurns int
	turns    []model.Turn
}

// NewHistory creates a history bounded at maxTurns recent turns. A
// non-positive maxTurns falls back to DefaultMaxTurns.
func NewHistory(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &History{maxTurns: maxTurns}
}

// Append adds a completed turn, evicting the oldest turns until the length
// is back within the cap.
func (h *History) Append(user, assistant string) {
	h.turns = append(h.turns, model.Turn{User: user, Assistant: assistant})
	if n := len(h.turns) - h.maxTurns; n > 0 {
		h.turns = h.turns[n:]
	}
}

// Recent returns the last n turns in chronological order, oldest of the
// window first.
func (h *History) Recent(n int) []model.Turn {
	if n <= 0 {
		return nil
	}
	if n > len(h.turns) {
		n = len(h.turns)
	}
	return h.turns[len(h.turns)-n:]
}

// Len returns the number of retained turns.
func (h *History) Len() int {
	return len(h.turns)
}
