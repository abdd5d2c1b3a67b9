// Package apply interprets placed commands against a reference,
// either into a freshly allocated output buffer (Standard) or in
// place into a single buffer pre-loaded with R (InPlace), per
// spec 4.J.
package apply

import (
	"errors"
	"fmt"

	"github.com/deltacomp/deltac/pkg/command"
)

// ErrOffsetRange is returned when a command reads or writes outside
// the bounds of its buffer.
var ErrOffsetRange = errors.New("apply: offset out of range")

// Standard allocates an output buffer of size versionSize and writes
// each command's output into out[dst:dst+len], reading Copy sources
// from r. Copies never read from the output buffer itself.
func Standard(r []byte, cmds []command.PlacedCommand, versionSize int) ([]byte, error) {
	out := make([]byte, versionSize)
	for _, pc := range cmds {
		switch c := pc.Cmd.(type) {
		case command.Copy:
			if c.Offset < 0 || c.Offset+c.Length > len(r) {
				return nil, fmt.Errorf("%w: copy src [%d:%d) vs |R|=%d", ErrOffsetRange, c.Offset, c.Offset+c.Length, len(r))
			}
			if pc.Dst < 0 || pc.Dst+c.Length > len(out) {
				return nil, fmt.Errorf("%w: copy dst [%d:%d) vs |V|=%d", ErrOffsetRange, pc.Dst, pc.Dst+c.Length, len(out))
			}
			copy(out[pc.Dst:pc.Dst+c.Length], r[c.Offset:c.Offset+c.Length])
		case command.Add:
			if pc.Dst < 0 || pc.Dst+len(c.Bytes) > len(out) {
				return nil, fmt.Errorf("%w: add dst [%d:%d) vs |V|=%d", ErrOffsetRange, pc.Dst, pc.Dst+len(c.Bytes), len(out))
			}
			copy(out[pc.Dst:pc.Dst+len(c.Bytes)], c.Bytes)
		}
	}
	return out, nil
}

// InPlace applies commands, scheduled by the in-place converter, into
// a single buffer of size max(|R|, versionSize) preloaded with R.
// Copies use Go's built-in copy(), which is memmove-safe for
// overlapping source/destination within the same slice; the converter
// guarantees the schedule makes every copy's source already correct
// by the time it executes.
func InPlace(r []byte, cmds []command.PlacedCommand, versionSize int) ([]byte, error) {
	size := len(r)
	if versionSize > size {
		size = versionSize
	}
	buf := make([]byte, size)
	copy(buf, r)

	for _, pc := range cmds {
		switch c := pc.Cmd.(type) {
		case command.Copy:
			if c.Offset < 0 || c.Offset+c.Length > len(buf) {
				return nil, fmt.Errorf("%w: copy src [%d:%d) vs buf=%d", ErrOffsetRange, c.Offset, c.Offset+c.Length, len(buf))
			}
			if pc.Dst < 0 || pc.Dst+c.Length > len(buf) {
				return nil, fmt.Errorf("%w: copy dst [%d:%d) vs buf=%d", ErrOffsetRange, pc.Dst, pc.Dst+c.Length, len(buf))
			}
			copy(buf[pc.Dst:pc.Dst+c.Length], buf[c.Offset:c.Offset+c.Length])
		case command.Add:
			if pc.Dst < 0 || pc.Dst+len(c.Bytes) > len(buf) {
				return nil, fmt.Errorf("%w: add dst [%d:%d) vs buf=%d", ErrOffsetRange, pc.Dst, pc.Dst+len(c.Bytes), len(buf))
			}
			copy(buf[pc.Dst:pc.Dst+len(c.Bytes)], c.Bytes)
		}
	}

	return buf[:versionSize], nil
}
