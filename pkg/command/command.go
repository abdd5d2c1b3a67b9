// Package command defines the tagged Command / PlacedCommand model
// shared by every differencing algorithm, the in-place converter, the
// codec, and the apply engine (spec Section 3 / 4.D).
package command

// Command is produced in V-sequential order: concatenating the output
// of a Command slice reproduces V exactly.
type Command interface {
	isCommand()
	// Len returns the number of V bytes this command contributes.
	Len() int
}

// Copy reads Length bytes from R starting at Offset.
type Copy struct {
	Offset int
	Length int
}

func (Copy) isCommand()    {}
func (c Copy) Len() int    { return c.Length }

// Add carries literal bytes owned by this command; Place
// deep-copies them so a placed command never aliases the caller's V
// slice.
type Add struct {
	Bytes []byte
}

func (Add) isCommand()   {}
func (a Add) Len() int   { return len(a.Bytes) }

// PlacedCommand augments a Command with its destination offset in the
// output buffer. The Dst fields of a full placed sequence partition
// [0, total length) with no overlap.
type PlacedCommand struct {
	Cmd Command
	Dst int
}

// Place converts a V-sequential command list into placed commands by
// prefix-summing their lengths into destination offsets. Add payloads
// are deep-copied so the placed sequence owns all of its bytes
// independently of the source command list.
func Place(cmds []Command) []PlacedCommand {
	out := make([]PlacedCommand, len(cmds))
	dst := 0
	for i, c := range cmds {
		if a, ok := c.(Add); ok {
			cp := make([]byte, len(a.Bytes))
			copy(cp, a.Bytes)
			c = Add{Bytes: cp}
		}
		out[i] = PlacedCommand{Cmd: c, Dst: dst}
		dst += c.Len()
	}
	return out
}

// Unplace recovers V-sequential order from a placed command sequence
// by sorting on Dst, stable on ties.
func Unplace(placed []PlacedCommand) []Command {
	ordered := make([]PlacedCommand, len(placed))
	copy(ordered, placed)
	sortByDst(ordered)

	out := make([]Command, len(ordered))
	for i, p := range ordered {
		out[i] = p.Cmd
	}
	return out
}

// sortByDst performs a stable insertion sort on Dst; placed sequences
// are small enough (bounded by command count, never R or V size) that
// this is simpler and just as fast as pulling in sort.Slice for a
// stability guarantee we'd have to double-check anyway.
func sortByDst(p []PlacedCommand) {
	for i := 1; i < len(p); i++ {
		j := i
		for j > 0 && p[j-1].Dst > p[j].Dst {
			p[j-1], p[j] = p[j], p[j-1]
			j--
		}
	}
}

// TotalLen sums the Len() of every command, the invariant length of V.
func TotalLen(cmds []Command) int {
	n := 0
	for _, c := range cmds {
		n += c.Len()
	}
	return n
}
