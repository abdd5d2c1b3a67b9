package diff

import (
	"github.com/deltacomp/deltac/pkg/command"
	"github.com/deltacomp/deltac/pkg/fingerprint"
	"github.com/deltacomp/deltac/pkg/seedtable"
)

// checkpointRecord is what the build phase stores per checkpointed
// seed: the full fingerprint (to reject slot collisions) and its
// R-offset.
type checkpointRecord struct {
	fp     uint64
	offset int
}

// Correcting implements the 1.5-pass algorithm with fingerprint
// checkpointing and tail correction (spec 4.E.3 / 4.F / 4.G): a build
// phase over R stores only seeds whose checkpoint footprint matches a
// biased k, then a scan phase over V looks up candidates, extends
// matches both forward and backward, and reconciles overlap with
// already-buffered output via a bounded lookback buffer.
func Correcting(r, v []byte, opts Options) []command.Command {
	p := opts.seedLen()
	minCopy := opts.minCopy()

	var l uint64
	if len(r) >= p {
		l = uint64(len(r) - p + 1)
	}

	midpointFP := uint64(0)
	if len(v) >= p {
		mid := (len(v) - p) / 2
		midpointFP = fingerprint.Fingerprint(v, mid, p)
	}
	params := CheckpointPolicy(l, p, opts.tableSize(), midpointFP)

	table := buildCheckpointTable(r, p, params, opts)

	const bufCap = 32
	buf := newLookback(bufCap)

	var cmds []command.Command
	vs, vc := 0, 0

	var rh fingerprint.Rolling
	rhValid := false
	rhPos := 0

	for vc+p <= len(v) {
		fpV := fingerprint.Advance(&rh, &rhValid, &rhPos, v, vc, p)

		if checkpointFootprint(fpV, params.F, params.M) != params.K {
			vc++
			continue
		}

		rec, found := table.Find(fpV)
		if !found || rec.fp != fpV || !verifySeed(v, r, vc, rec.offset, p) {
			vc++
			continue
		}

		bwd := extendBackward(v, r, vc, rec.offset)
		fwd := extendForward(v, r, vc, rec.offset, p)
		ml := bwd + fwd
		if ml < minCopy {
			vc++
			continue
		}

		vm := vc - bwd
		rm := rec.offset - bwd

		cmds = applyCorrectingMatch(cmds, buf, v, vs, vm, rm, ml)
		vs = vm + ml
		vc = vs
		rhValid = false
	}

	cmds = append(cmds, buf.flush()...)
	cmds = appendNonNil(cmds, pendingAdd(v, vs, len(v)))
	return cmds
}

// buildCheckpointTable rolls a fingerprint across R's L seeds, storing
// (fp, offset) for every seed passing the checkpoint test, first-found
// per fingerprint: a later seed with the same fingerprint never replaces
// the stored offset. With the hash-table backend, a seed whose
// fingerprint differs but lands on an occupied slot replaces that slot's
// record.
func buildCheckpointTable(r []byte, p int, params CheckpointParams, opts Options) seedtable.Table[checkpointRecord] {
	var table seedtable.Table[checkpointRecord]
	if opts.UseSplay {
		table = seedtable.NewSplayTable[checkpointRecord]()
	} else {
		table = seedtable.NewHashTable[checkpointRecord](params.C)
	}

	if len(r) < p {
		return table
	}

	var rh fingerprint.Rolling
	rhValid := false
	rhPos := 0
	for off := 0; off+p <= len(r); off++ {
		fp := fingerprint.Advance(&rh, &rhValid, &rhPos, r, off, p)
		if checkpointFootprint(fp, params.F, params.M) != params.K {
			continue
		}
		table.InsertOrGet(fp, checkpointRecord{fp: fp, offset: off})
	}
	return table
}

// applyCorrectingMatch pushes the pending add + copy for a match
// (vm, rm, ml) through the lookback buffer, handling both the
// forward-only case (vs <= vm) and the tail-correction case
// (vm < vs, the match reaches back into buffered output) per §4.E.3's
// "Encoding with tail correction".
func applyCorrectingMatch(cmds []command.Command, buf *lookback, v []byte, vs, vm, rm, ml int) []command.Command {
	if vs <= vm {
		if vs < vm {
			addCmd := pendingAdd(v, vs, vm)
			committed, ok := buf.pushBack(lookbackEntry{vStart: vs, vEnd: vm, cmd: addCmd})
			if ok {
				cmds = append(cmds, committed.cmd)
			}
		}
		copyCmd := command.Copy{Offset: rm, Length: ml}
		committed, ok := buf.pushBack(lookbackEntry{vStart: vm, vEnd: vm + ml, cmd: copyCmd})
		if ok {
			cmds = append(cmds, committed.cmd)
		}
		return cmds
	}

	// Tail correction: the match reaches backward into the buffered
	// suffix. Absorb any tail entry wholly inside [vm, vm+ml); trim a
	// straddling Add and stop; a straddling Copy is never reclaimed.
	effectiveStart := vs
	for {
		tail, ok := buf.peekBack()
		if !ok {
			break
		}
		if tail.vStart >= vm && tail.vEnd <= vm+ml {
			buf.popBack()
			effectiveStart = tail.vStart
			continue
		}
		if tail.vStart < vm && tail.vEnd > vm {
			if add, isAdd := tail.cmd.(command.Add); isAdd {
				trimmed := add.Bytes[:vm-tail.vStart]
				buf.editBack(lookbackEntry{
					vStart: tail.vStart,
					vEnd:   vm,
					cmd:    command.Add{Bytes: trimmed},
				})
				effectiveStart = vm
			}
		}
		break
	}

	adj := effectiveStart - vm
	copyCmd := command.Copy{Offset: rm + adj, Length: ml - adj}
	committed, ok := buf.pushBack(lookbackEntry{vStart: effectiveStart, vEnd: vm + ml, cmd: copyCmd})
	if ok {
		cmds = append(cmds, committed.cmd)
	}
	return cmds
}
