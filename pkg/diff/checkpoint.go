package diff

import "github.com/deltacomp/deltac/pkg/primes"

// CheckpointParams is the output of the checkpoint sizing policy
// (spec 4.G): given (L, p, qFloor) it derives the table capacity |C|,
// the footprint modulus |F|, the stride m, and the biased slot k that
// together bound Correcting's table to |C| regardless of |R|.
type CheckpointParams struct {
	C uint64 // table capacity
	F uint64 // footprint modulus
	M uint64 // stride, ceil(F/C)
	K uint64 // selected footprint, in [0, M)
}

// ceilDiv computes ceil(a/b) for positive a, b.
func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// computeCheckpointParams derives |C|, |F|, m from L (number of
// R-seeds), p (seed length) and qFloor (minimum table size), per
// §4.E.3: |C| = next_prime(max(qFloor, 2L/p)), |F| = next_prime(2L),
// m = ceil(|F|/|C|).
func computeCheckpointParams(l uint64, p int, qFloor uint64) (c, f, m uint64) {
	cFloor := qFloor
	if p > 0 {
		twoLOverP := (2 * l) / uint64(p)
		if twoLOverP > cFloor {
			cFloor = twoLOverP
		}
	}
	c = primes.NextPrime(cFloor)
	f = primes.NextPrime(2 * l)
	m = ceilDiv(f, c)
	if m == 0 {
		m = 1
	}
	return c, f, m
}

// biasedK derives k by sampling V's fingerprint near its midpoint and
// reducing it mod |F| mod m (§4.E.3, "biased" k, paper p. 348). It is
// a pure function of V so Correcting's output is reproducible.
func biasedK(midpointFP uint64, f, m uint64) uint64 {
	return (midpointFP % f) % m
}

// checkpointFootprint is the test a seed's fingerprint must pass to be
// a checkpoint: (fp mod F) mod m == k.
func checkpointFootprint(fp, f, m uint64) uint64 {
	return (fp % f) % m
}

// CheckpointPolicy runs the full sizing + bias pipeline for Correcting.
func CheckpointPolicy(l uint64, p int, qFloor uint64, midpointFP uint64) CheckpointParams {
	c, f, m := computeCheckpointParams(l, p, qFloor)
	k := biasedK(midpointFP, f, m)
	return CheckpointParams{C: c, F: f, M: m, K: k}
}
