package primes_test

import (
	"math/rand"
	"testing"

	"github.com/deltacomp/deltac/pkg/primes"
)

func TestIsPrimeKnownValues(t *testing.T) {
	t.Parallel()

	primeList := []uint64{2, 3, 5, 7, 11, 13, 97, 1009, 1048573, 4294967291}
	for _, p := range primeList {
		if !primes.IsPrime(p) {
			t.Errorf("IsPrime(%d) = false, want true", p)
		}
	}

	composites := []uint64{0, 1, 4, 6, 8, 9, 100, 1001, 1048575}
	for _, c := range composites {
		if primes.IsPrime(c) {
			t.Errorf("IsPrime(%d) = true, want false", c)
		}
	}
}

func TestNextPrimeIsAtLeastAndPrime(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := uint64(rng.Intn(1_000_000))
		p := primes.NextPrime(n)
		if p < n {
			t.Fatalf("NextPrime(%d) = %d, which is smaller than n", n, p)
		}
		if !primes.IsPrime(p) {
			t.Fatalf("NextPrime(%d) = %d is not prime", n, p)
		}
	}
}

func TestNextPrimeSmallBoundaries(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		n, want uint64
	}{
		{0, 2},
		{1, 2},
		{2, 2},
		{3, 3},
		{4, 5},
	} {
		if got := primes.NextPrime(tt.n); got != tt.want {
			t.Errorf("NextPrime(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func FuzzNextPrime(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(1))
	f.Add(uint64(2))
	f.Add(uint64(1 << 20))

	f.Fuzz(func(t *testing.T, n uint64) {
		n %= 10_000_000
		p := primes.NextPrime(n)
		if p < n || !primes.IsPrime(p) {
			t.Fatalf("NextPrime(%d) = %d invalid", n, p)
		}
	})
}
