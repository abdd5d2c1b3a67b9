// Package fingerprint computes Karp-Rabin polynomial fingerprints over
// the Mersenne prime 2^61-1 and slides the fingerprint window in O(1).
package fingerprint

import "math/bits"

// Mod is the Mersenne prime modulus 2^61-1 (Section 2.1.3 of the paper).
const Mod = (uint64(1) << 61) - 1

// Base is the polynomial base used by the fingerprint.
const Base = 263

// mulMod computes a*b mod Mod without overflow, using a 128-bit
// intermediate product via math/bits, then two Mersenne reductions.
func mulMod(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return reduce128(hi, lo)
}

// reduce128 reduces a 128-bit value (hi:lo) mod the Mersenne prime
// 2^61-1 using the identity y mod Q = (y >> 61) + (y & Q), applied
// twice, which is always sufficient for products of two values < Q.
func reduce128(hi, lo uint64) uint64 {
	// y >> 61 and y & Mod, where y = hi*2^64 + lo.
	shifted := (hi << 3) | (lo >> 61)
	masked := lo & Mod
	r := shifted + masked
	if r >= Mod {
		r -= Mod
	}
	shifted2 := r >> 61
	masked2 := r & Mod
	r2 := shifted2 + masked2
	if r2 >= Mod {
		r2 -= Mod
	}
	return r2
}

// addMod computes (a+b) mod Mod for a, b < Mod.
func addMod(a, b uint64) uint64 {
	r := a + b
	if r >= Mod {
		r -= Mod
	}
	return r
}

// subMod computes (a-b) mod Mod for a, b < Mod.
func subMod(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return Mod - (b - a)
}

// Fingerprint computes the polynomial fingerprint of data[offset:offset+p]
// under base Base modulo Mod: F = sum(data[i] * Base^(p-1-i)) mod Mod.
func Fingerprint(data []byte, offset, p int) uint64 {
	var h uint64
	end := offset + p
	for i := offset; i < end; i++ {
		h = mulMod(h, Base)
		h = addMod(h, uint64(data[i]))
	}
	return h
}

// PrecomputeBP returns Base^(p-1) mod Mod, the coefficient multiplied
// against the outgoing byte when rolling a window of length p.
func PrecomputeBP(p int) uint64 {
	if p == 0 {
		return 1
	}
	result := uint64(1)
	base := uint64(Base)
	exp := p - 1
	for exp > 0 {
		if exp&1 == 1 {
			result = mulMod(result, base)
		}
		base = mulMod(base, base)
		exp >>= 1
	}
	return result
}

// Rolling is an O(1) sliding-window Karp-Rabin fingerprint over a fixed
// window length p.
type Rolling struct {
	bp    uint64 // Base^(p-1) mod Mod
	p     int
	Value uint64
}

// Init creates a Rolling fingerprint positioned at data[offset:offset+p].
func Init(data []byte, offset, p int) *Rolling {
	return &Rolling{
		bp:    PrecomputeBP(p),
		p:     p,
		Value: Fingerprint(data, offset, p),
	}
}

// Roll slides the window forward by one byte: oldByte leaves at the low
// end, newByte enters at the high end.
func (r *Rolling) Roll(oldByte, newByte byte) {
	sub := mulMod(uint64(oldByte), r.bp)
	v := subMod(r.Value, sub)
	v = mulMod(v, Base)
	r.Value = addMod(v, uint64(newByte))
}

// Advance repositions a rolling fingerprint at data[target:target+p],
// reusing rh via Roll when target is rh's current position or one past
// it, and reinitializing from scratch otherwise. valid and pos track
// rh's state across calls from the caller's side, matching the pattern
// every differencing algorithm needs when V/R positions can jump.
func Advance(rh *Rolling, valid *bool, pos *int, data []byte, target, p int) uint64 {
	switch {
	case *valid && target == *pos:
		// already positioned
	case *valid && target == *pos+1:
		rh.Roll(data[target-1], data[target+p-1])
		*pos = target
	default:
		*rh = *Init(data, target, p)
		*valid = true
		*pos = target
	}
	return rh.Value
}
