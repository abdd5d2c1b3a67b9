package diff

import (
	"github.com/deltacomp/deltac/pkg/command"
	"github.com/deltacomp/deltac/pkg/fingerprint"
	"github.com/deltacomp/deltac/pkg/primes"
	"github.com/deltacomp/deltac/pkg/seedtable"
)

// onePassRecord is the in-place record both H_V and H_R store: the
// full fingerprint and offset of a seed, tagged with the version it
// was last written under so the table can be logically flushed
// without physically clearing it.
type onePassRecord struct {
	fp      uint64
	offset  int
	version uint64
}

// onePassState wraps a seedtable.Table with the version-based
// retain-existing insert One-Pass needs: within the current version, a
// fingerprint already stored keeps its existing record. With the
// hash-table backend, a different fingerprint landing on an occupied
// slot overwrites it, whatever that record's version.
type onePassState struct {
	table   seedtable.Table[onePassRecord]
	version uint64
}

func (s *onePassState) find(fp uint64) (onePassRecord, bool) {
	rec, ok := s.table.Find(fp)
	if !ok || rec.version != s.version {
		return onePassRecord{}, false
	}
	return rec, true
}

func (s *onePassState) insertRetaining(fp uint64, offset int) {
	existing, ok := s.table.Find(fp)
	if ok && existing.version == s.version {
		return
	}
	s.table.Insert(fp, onePassRecord{fp: fp, offset: offset, version: s.version})
}

func newOnePassState(q uint64, useSplay bool) *onePassState {
	var t seedtable.Table[onePassRecord]
	if useSplay {
		t = seedtable.NewSplayTable[onePassRecord]()
	} else {
		t = seedtable.NewHashTable[onePassRecord](q)
	}
	return &onePassState{table: t, version: 1}
}

// OnePass implements the O(np+q) single-pass algorithm (spec 4.E.2):
// two tables indexed by fp mod q, advancing v_c and r_c together and
// cross-looking-up each other's current seed fingerprint.
func OnePass(r, v []byte, opts Options) []command.Command {
	p := opts.seedLen()
	minCopy := opts.minCopy()

	nseeds := 0
	if len(r) >= p {
		nseeds = len(r) - p + 1
	}
	q := primes.NextPrime(maxU64(opts.tableSize(), uint64(nseeds)/uint64(max1(p))))

	hv := newOnePassState(q, opts.UseSplay)
	hr := newOnePassState(q, opts.UseSplay)

	var cmds []command.Command
	vs, vc, rc := 0, 0, 0

	var vrh, rrh fingerprint.Rolling
	vValid, rValid := false, false
	vPos, rPos := 0, 0

	for vc+p <= len(v) && rc+p <= len(r) {
		fpV := fingerprint.Advance(&vrh, &vValid, &vPos, v, vc, p)
		fpR := fingerprint.Advance(&rrh, &rValid, &rPos, r, rc, p)

		hv.insertRetaining(fpV, vc)
		hr.insertRetaining(fpR, rc)

		matched := false
		if recR, ok := hr.find(fpV); ok && verifySeed(v, r, vc, recR.offset, p) {
			ml := extendForward(v, r, vc, recR.offset, p)
			if ml >= minCopy {
				cmds = appendNonNil(cmds, pendingAdd(v, vs, vc))
				cmds = append(cmds, command.Copy{Offset: recR.offset, Length: ml})
				vc += ml
				vs = vc
				rc++
				matched = true
			}
		}
		if !matched {
			if recV, ok := hv.find(fpR); ok && verifySeed(r, v, rc, recV.offset, p) {
				ml := extendForward(r, v, rc, recV.offset, p)
				if ml >= minCopy {
					cmds = appendNonNil(cmds, pendingAdd(v, vs, recV.offset))
					cmds = append(cmds, command.Copy{Offset: rc, Length: ml})
					vc = recV.offset + ml
					vs = vc
					rc += ml
					matched = true
				}
			}
		}

		if matched {
			hv.version++
			hr.version++
			vValid, rValid = false, false
			continue
		}

		vc++
		rc++
	}

	cmds = appendNonNil(cmds, pendingAdd(v, vs, len(v)))
	return cmds
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func max1(p int) int {
	if p < 1 {
		return 1
	}
	return p
}
