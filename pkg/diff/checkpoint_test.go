package diff

import (
	"testing"

	"github.com/deltacomp/deltac/pkg/primes"
)

func TestCheckpointPolicySizing(t *testing.T) {
	t.Parallel()

	params := CheckpointPolicy(10000, 16, 1000, 0xABCDEF)

	if !primes.IsPrime(params.C) {
		t.Errorf("C = %d is not prime", params.C)
	}
	if !primes.IsPrime(params.F) {
		t.Errorf("F = %d is not prime", params.F)
	}
	if params.C < 1000 {
		t.Errorf("C = %d, want >= qFloor 1000", params.C)
	}
	if params.M != ceilDiv(params.F, params.C) {
		t.Errorf("M = %d, want ceil(F/C) = %d", params.M, ceilDiv(params.F, params.C))
	}
	if params.K >= params.M {
		t.Errorf("K = %d, want < M = %d", params.K, params.M)
	}
}

func TestCheckpointPolicyIsDeterministic(t *testing.T) {
	t.Parallel()

	a := CheckpointPolicy(500, 16, 97, 12345)
	b := CheckpointPolicy(500, 16, 97, 12345)
	if a != b {
		t.Fatalf("CheckpointPolicy is not pure: %+v != %+v", a, b)
	}
}

func TestCeilDiv(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ a, b, want uint64 }{
		{10, 5, 2},
		{11, 5, 3},
		{1, 1, 1},
		{0, 5, 0},
	} {
		if got := ceilDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCheckpointFootprintBounded(t *testing.T) {
	t.Parallel()

	params := CheckpointPolicy(2000, 16, 101, 999)
	for _, fp := range []uint64{0, 1, 999999, 1 << 60} {
		if got := checkpointFootprint(fp, params.F, params.M); got >= params.M {
			t.Errorf("checkpointFootprint(%d) = %d, want < M=%d", fp, got, params.M)
		}
	}
}
