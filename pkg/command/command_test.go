package command_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/deltacomp/deltac/pkg/command"
)

func TestPlaceComputesPrefixSumDestinations(t *testing.T) {
	t.Parallel()

	cmds := []command.Command{
		command.Add{Bytes: []byte("ab")},
		command.Copy{Offset: 10, Length: 5},
		command.Add{Bytes: []byte("xyz")},
	}

	placed := command.Place(cmds)
	want := []int{0, 2, 7}
	for i, p := range placed {
		if p.Dst != want[i] {
			t.Errorf("placed[%d].Dst = %d, want %d", i, p.Dst, want[i])
		}
	}
	if command.TotalLen(cmds) != 10 {
		t.Errorf("TotalLen = %d, want 10", command.TotalLen(cmds))
	}
}

func TestPlaceDeepCopiesAddPayloads(t *testing.T) {
	t.Parallel()

	src := []byte("mutate me")
	cmds := []command.Command{command.Add{Bytes: src}}
	placed := command.Place(cmds)

	src[0] = 'X'

	add := placed[0].Cmd.(command.Add)
	if add.Bytes[0] == 'X' {
		t.Fatalf("placed Add aliases the caller's byte slice")
	}
}

func TestUnplaceRecoversVSequentialOrder(t *testing.T) {
	t.Parallel()

	cmds := []command.Command{
		command.Copy{Offset: 0, Length: 3},
		command.Add{Bytes: []byte("y")},
		command.Copy{Offset: 5, Length: 2},
	}
	placed := command.Place(cmds)

	// Shuffle the placed slice; Unplace must still recover V order by Dst.
	shuffled := []command.PlacedCommand{placed[2], placed[0], placed[1]}
	got := command.Unplace(shuffled)

	if len(got) != len(cmds) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(cmds))
	}
	for i := range cmds {
		if diff := cmp.Diff(cmds[i], got[i]); diff != "" {
			t.Errorf("got[%d] mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestUnplaceStableOnTies(t *testing.T) {
	t.Parallel()

	// Two zero-length commands share Dst=0; stability must preserve
	// their relative order.
	a := command.PlacedCommand{Cmd: command.Add{Bytes: nil}, Dst: 0}
	b := command.PlacedCommand{Cmd: command.Copy{Offset: 1, Length: 0}, Dst: 0}
	c := command.PlacedCommand{Cmd: command.Add{Bytes: []byte("z")}, Dst: 0}

	got := command.Unplace([]command.PlacedCommand{a, b, c})
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if !cmp.Equal(got[0], a.Cmd) || !cmp.Equal(got[1], b.Cmd) || !cmp.Equal(got[2], c.Cmd) {
		t.Fatalf("Unplace did not preserve insertion order on Dst ties")
	}
}

func FuzzPlaceUnplaceRoundtrip(f *testing.F) {
	f.Add(int64(1), 5)
	f.Add(int64(2), 0)

	f.Fuzz(func(t *testing.T, seed int64, n int) {
		if n < 0 || n > 64 {
			t.Skip()
		}
		rng := rand.New(rand.NewSource(seed))

		cmds := make([]command.Command, n)
		for i := range cmds {
			if rng.Intn(2) == 0 {
				b := make([]byte, rng.Intn(8))
				rng.Read(b)
				cmds[i] = command.Add{Bytes: b}
			} else {
				cmds[i] = command.Copy{Offset: rng.Intn(1000), Length: rng.Intn(8)}
			}
		}

		placed := command.Place(cmds)
		got := command.Unplace(placed)

		if len(got) != len(cmds) {
			t.Fatalf("len(got) = %d, want %d", len(got), len(cmds))
		}
		for i := range cmds {
			if diff := cmp.Diff(cmds[i], got[i]); diff != "" {
				t.Fatalf("roundtrip mismatch at %d (-want +got):\n%s", i, diff)
			}
		}
	})
}
