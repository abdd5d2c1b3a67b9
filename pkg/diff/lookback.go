package diff

import "github.com/deltacomp/deltac/pkg/command"

// lookbackEntry is a provisional command not yet committed to the
// output stream (spec 4.F / "Lookback buffer" in the data model).
type lookbackEntry struct {
	vStart, vEnd int
	cmd          command.Command
}

// lookback is a bounded, insertion-ordered deque of provisional
// commands. Entries cover disjoint, contiguous V-intervals in order;
// it never holds more than cap entries. It is the tail-correction
// mechanism Correcting needs: a later match can reach back into
// already-buffered (but not yet committed) entries and rewrite them.
type lookback struct {
	entries []lookbackEntry
	cap     int
}

func newLookback(cap int) *lookback {
	if cap < 1 {
		cap = 1
	}
	return &lookback{cap: cap}
}

// pushBack appends e, committing and returning the head entry if the
// buffer was already at capacity, else returns (zero, false).
func (b *lookback) pushBack(e lookbackEntry) (committed lookbackEntry, ok bool) {
	if len(b.entries) >= b.cap {
		committed, ok = b.popFront()
	}
	b.entries = append(b.entries, e)
	return committed, ok
}

// popFront removes and returns the oldest entry.
func (b *lookback) popFront() (lookbackEntry, bool) {
	if len(b.entries) == 0 {
		return lookbackEntry{}, false
	}
	e := b.entries[0]
	b.entries = b.entries[1:]
	return e, true
}

// peekBack returns the most recently pushed entry without removing it.
func (b *lookback) peekBack() (lookbackEntry, bool) {
	if len(b.entries) == 0 {
		return lookbackEntry{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// popBack removes and returns the most recently pushed entry.
func (b *lookback) popBack() (lookbackEntry, bool) {
	if len(b.entries) == 0 {
		return lookbackEntry{}, false
	}
	n := len(b.entries) - 1
	e := b.entries[n]
	b.entries = b.entries[:n]
	return e, true
}

// editBack replaces the tail entry in place (used to trim a straddling Add).
func (b *lookback) editBack(e lookbackEntry) {
	b.entries[len(b.entries)-1] = e
}

// len reports the number of buffered (uncommitted) entries.
func (b *lookback) len() int { return len(b.entries) }

// flush drains every remaining entry in order.
func (b *lookback) flush() []command.Command {
	var out []command.Command
	for _, e := range b.entries {
		out = append(out, e.cmd)
	}
	b.entries = nil
	return out
}
