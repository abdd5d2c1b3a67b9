package diff

import (
	"github.com/deltacomp/deltac/pkg/command"
	"github.com/deltacomp/deltac/pkg/fingerprint"
	"github.com/deltacomp/deltac/pkg/seedtable"
)

// Greedy implements the optimal O(|V|*|R|)-worst-case algorithm
// (spec 4.E.1): build a multi-map from every R-seed's fingerprint to
// its offsets, then scan V greedily picking the longest verified match
// at each position.
func Greedy(r, v []byte, opts Options) []command.Command {
	p := opts.seedLen()
	minCopy := opts.minCopy()

	mm := buildGreedyMultiMap(r, p, opts)

	var cmds []command.Command
	vs, vc := 0, 0

	var rh fingerprint.Rolling
	rhValid := false
	rhPos := 0

	for vc+p <= len(v) {
		fp := fingerprint.Advance(&rh, &rhValid, &rhPos, v, vc, p)

		bestLen, bestOff := 0, -1
		for _, off := range mm.Offsets(fp) {
			if !verifySeed(v, r, vc, off, p) {
				continue
			}
			ml := extendForward(v, r, vc, off, p)
			if ml > bestLen {
				bestLen = ml
				bestOff = off
			}
		}

		if bestLen >= minCopy {
			cmds = appendNonNil(cmds, pendingAdd(v, vs, vc))
			cmds = append(cmds, command.Copy{Offset: bestOff, Length: bestLen})
			vc += bestLen
			vs = vc
			rhValid = false
		} else {
			vc++
		}
	}

	cmds = appendNonNil(cmds, pendingAdd(v, vs, len(v)))
	return cmds
}

// buildGreedyMultiMap indexes every seed offset in R (0 <= off <= |R|-p)
// by its fingerprint.
func buildGreedyMultiMap(r []byte, p int, opts Options) seedtable.MultiMap {
	var mm seedtable.MultiMap
	if opts.UseSplay {
		mm = seedtable.NewSplayMultiMap()
	} else {
		buckets := int(opts.tableSize())
		if buckets < 1 {
			buckets = 1
		}
		mm = seedtable.NewChainedMultiMap(buckets)
	}

	if len(r) < p {
		return mm
	}

	var rh fingerprint.Rolling
	rhValid := false
	rhPos := 0
	for off := 0; off+p <= len(r); off++ {
		fp := fingerprint.Advance(&rh, &rhValid, &rhPos, r, off, p)
		mm.Add(fp, off)
	}
	return mm
}
