// Package diff implements the three Ajtai-Burns-Fagin-Long differencing
// algorithms (Greedy, One-Pass, Correcting 1.5-Pass with checkpointing)
// against the seedtable.Table / seedtable.MultiMap abstractions, plus
// the lookback buffer and checkpoint policy Correcting needs.
package diff

import "github.com/deltacomp/deltac/pkg/command"

// Options configures any of the three algorithms.
type Options struct {
	// SeedLen is p, the fixed seed length. Default 16.
	SeedLen int
	// MinCopy is the minimum match length accepted as a Copy; defaults
	// to SeedLen when zero.
	MinCopy int
	// TableSize is q_floor, the minimum hash table capacity; auto-sized
	// upward per algorithm. Default 1048573 (a prime near 2^20).
	TableSize uint64
	// UseSplay selects a splay tree lookup structure instead of a
	// fixed-size hash table.
	UseSplay bool
}

const defaultTableSize = 1048573

func (o Options) seedLen() int {
	if o.SeedLen <= 0 {
		return 16
	}
	return o.SeedLen
}

func (o Options) minCopy() int {
	if o.MinCopy > 0 {
		return o.MinCopy
	}
	return o.seedLen()
}

func (o Options) tableSize() uint64 {
	if o.TableSize == 0 {
		return defaultTableSize
	}
	return o.TableSize
}

// verifySeed byte-compares the p-byte seed at vOff in V against the
// seed at rOff in R. Fingerprint equality is never sufficient on its
// own (spec 4.E's common loop invariant).
func verifySeed(v, r []byte, vOff, rOff, p int) bool {
	if vOff+p > len(v) || rOff+p > len(r) {
		return false
	}
	for i := 0; i < p; i++ {
		if v[vOff+i] != r[rOff+i] {
			return false
		}
	}
	return true
}

// extendForward extends a verified match as far as possible in the
// direction of increasing offset, given it already matches for
// `matched` bytes.
func extendForward(v, r []byte, vOff, rOff, matched int) int {
	n := matched
	for vOff+n < len(v) && rOff+n < len(r) && v[vOff+n] == r[rOff+n] {
		n++
	}
	return n
}

// extendBackward extends a verified match backward from vOff/rOff,
// returning the number of additional bytes matched (bwd), bounded so
// it never walks past index 0 in either string.
func extendBackward(v, r []byte, vOff, rOff int) int {
	bwd := 0
	for vOff-bwd-1 >= 0 && rOff-bwd-1 >= 0 && v[vOff-bwd-1] == r[rOff-bwd-1] {
		bwd++
	}
	return bwd
}

// pendingAdd returns an Add command for v[start:end), or nil if the
// range is empty.
func pendingAdd(v []byte, start, end int) command.Command {
	if start >= end {
		return nil
	}
	b := make([]byte, end-start)
	copy(b, v[start:end])
	return command.Add{Bytes: b}
}

// appendNonNil appends cmd to cmds if cmd is non-nil (the command.Command
// interface value, not a typed nil).
func appendNonNil(cmds []command.Command, cmd command.Command) []command.Command {
	if cmd == nil {
		return cmds
	}
	return append(cmds, cmd)
}
