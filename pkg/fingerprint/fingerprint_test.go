package fingerprint_test

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/deltacomp/deltac/pkg/fingerprint"
)

func TestFingerprintMatchesDefinition(t *testing.T) {
	t.Parallel()

	data := []byte("the quick brown fox jumps over the lazy dog")
	for _, tt := range []struct {
		offset, p int
	}{
		{0, 1}, {0, 4}, {5, 9}, {len(data) - 3, 3},
	} {
		got := fingerprint.Fingerprint(data, tt.offset, tt.p)
		if got >= fingerprint.Mod {
			t.Fatalf("fingerprint %d not reduced mod Q", got)
		}
		// sum(data[i] * Base^(p-1-i)) mod Q, evaluated with math/big.
		q := new(big.Int).SetUint64(fingerprint.Mod)
		want := new(big.Int)
		for i := tt.offset; i < tt.offset+tt.p; i++ {
			want.Mul(want, big.NewInt(fingerprint.Base))
			want.Add(want, big.NewInt(int64(data[i])))
			want.Mod(want, q)
		}
		if got != want.Uint64() {
			t.Fatalf("Fingerprint(offset=%d, p=%d) = %d, want %d", tt.offset, tt.p, got, want.Uint64())
		}
	}
}

func TestRollEqualsFreshFingerprint(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(200) + 20
		p := rng.Intn(n-1) + 1
		data := make([]byte, n)
		rng.Read(data)

		rh := fingerprint.Init(data, 0, p)
		if rh.Value != fingerprint.Fingerprint(data, 0, p) {
			t.Fatalf("initial fingerprint mismatch")
		}

		for off := 1; off+p <= n; off++ {
			rh.Roll(data[off-1], data[off+p-1])
			want := fingerprint.Fingerprint(data, off, p)
			if rh.Value != want {
				t.Fatalf("offset %d: roll=%d fresh=%d (p=%d)", off, rh.Value, want, p)
			}
		}
	}
}

func TestAdvanceReusesOrReinitializes(t *testing.T) {
	t.Parallel()

	data := []byte("abcdefghijklmnopqrstuvwxyz")
	p := 4

	var rh fingerprint.Rolling
	valid := false
	pos := 0

	// First call always reinitializes.
	v0 := fingerprint.Advance(&rh, &valid, &pos, data, 3, p)
	if v0 != fingerprint.Fingerprint(data, 3, p) {
		t.Fatalf("advance-init mismatch")
	}

	// Sequential advance should roll.
	v1 := fingerprint.Advance(&rh, &valid, &pos, data, 4, p)
	if v1 != fingerprint.Fingerprint(data, 4, p) {
		t.Fatalf("advance-roll mismatch")
	}

	// Non-adjacent jump must reinitialize from scratch.
	v2 := fingerprint.Advance(&rh, &valid, &pos, data, 10, p)
	if v2 != fingerprint.Fingerprint(data, 10, p) {
		t.Fatalf("advance-jump mismatch")
	}
}

func TestPrecomputeBPZeroLength(t *testing.T) {
	t.Parallel()
	if got := fingerprint.PrecomputeBP(0); got != 1 {
		t.Fatalf("PrecomputeBP(0) = %d, want 1", got)
	}
}

func FuzzRollMatchesFresh(f *testing.F) {
	f.Add(int64(0), 30, 4)
	f.Add(int64(1), 2, 1)
	f.Add(int64(2), 100, 16)

	f.Fuzz(func(t *testing.T, seed int64, n, p int) {
		if n < 1 || n > 2000 {
			t.Skip()
		}
		if p < 1 || p > n {
			t.Skip()
		}

		rng := rand.New(rand.NewSource(seed))
		data := make([]byte, n)
		rng.Read(data)

		rh := fingerprint.Init(data, 0, p)
		for off := 1; off+p <= n; off++ {
			rh.Roll(data[off-1], data[off+p-1])
			if rh.Value != fingerprint.Fingerprint(data, off, p) {
				t.Fatalf("mismatch at offset %d (n=%d p=%d seed=%d)", off, n, p, seed)
			}
		}
	})
}
