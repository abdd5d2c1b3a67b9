package codec_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/deltacomp/deltac/pkg/codec"
	"github.com/deltacomp/deltac/pkg/command"
	"github.com/deltacomp/deltac/pkg/digest"
)

func samplePlaced() []command.PlacedCommand {
	cmds := []command.Command{
		command.Add{Bytes: []byte("hi")},
		command.Copy{Offset: 3, Length: 5},
		command.Add{Bytes: []byte("tail")},
	}
	return command.Place(cmds)
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	t.Parallel()

	placed := samplePlaced()
	data := codec.Encode(placed, command.TotalLen(command.Unplace(placed)), codec.EncodeOptions{})

	hdr, got, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if hdr.Inplace {
		t.Errorf("Inplace = true, want false")
	}
	if hdr.DigestKind != digest.None {
		t.Errorf("DigestKind = %v, want None", hdr.DigestKind)
	}
	if diff := cmp.Diff(placed, got); diff != "" {
		t.Errorf("decoded commands differ (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeInplaceFlag(t *testing.T) {
	t.Parallel()

	placed := samplePlaced()
	data := codec.Encode(placed, 20, codec.EncodeOptions{Inplace: true})

	hdr, _, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !hdr.Inplace {
		t.Errorf("Inplace = false, want true")
	}
	if hdr.VersionSize != 20 {
		t.Errorf("VersionSize = %d, want 20", hdr.VersionSize)
	}
}

func TestEncodeDecodeWithDigest(t *testing.T) {
	t.Parallel()

	r := []byte("the reference bytes")
	v := []byte("hi12345tail")

	for _, kind := range []digest.Kind{digest.SHAKE128, digest.CRC64XZ} {
		placed := samplePlaced()
		data := codec.Encode(placed, len(v), codec.EncodeOptions{
			DigestKind: kind,
			RBytes:     r,
			VBytes:     v,
		})

		hdr, _, err := codec.Decode(data)
		if err != nil {
			t.Fatalf("%v: Decode: %v", kind, err)
		}
		if hdr.DigestKind != kind {
			t.Fatalf("%v: DigestKind = %v, want %v", kind, hdr.DigestKind, kind)
		}
		if err := hdr.VerifyReferenceDigest(r); err != nil {
			t.Errorf("%v: VerifyReferenceDigest: %v", kind, err)
		}
		if err := hdr.VerifyVersionDigest(v); err != nil {
			t.Errorf("%v: VerifyVersionDigest: %v", kind, err)
		}
		if err := hdr.VerifyReferenceDigest([]byte("wrong bytes entirely")); err == nil {
			t.Errorf("%v: VerifyReferenceDigest accepted tampered reference", kind)
		}
	}
}

func TestEncodeWithRawDigestsSkipsRecompute(t *testing.T) {
	t.Parallel()

	r := []byte("reference")
	knownR := digest.Sum(digest.CRC64XZ, r)
	knownV := digest.Sum(digest.CRC64XZ, []byte("version"))

	placed := samplePlaced()
	data := codec.Encode(placed, 7, codec.EncodeOptions{
		DigestKind: digest.CRC64XZ,
		RawRDigest: knownR,
		RawVDigest: knownV,
	})

	hdr, _, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(hdr.RDigest) != string(knownR) {
		t.Errorf("RDigest not carried through unchanged")
	}
	if string(hdr.VDigest) != string(knownV) {
		t.Errorf("VDigest not carried through unchanged")
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	t.Parallel()

	_, _, err := codec.Decode([]byte("not a delta file at all"))
	if err == nil {
		t.Fatalf("Decode accepted garbage input")
	}
}

func TestDecodeToleratesMissingEndSentinel(t *testing.T) {
	t.Parallel()

	placed := samplePlaced()
	data := codec.Encode(placed, command.TotalLen(command.Unplace(placed)), codec.EncodeOptions{})

	// Drop the trailing END byte; the original C decoder does not treat
	// data exhaustion without an explicit END as an error.
	truncated := data[:len(data)-1]

	_, got, err := codec.Decode(truncated)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(placed, got); diff != "" {
		t.Errorf("decoded commands differ after END removal (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsTruncatedCommand(t *testing.T) {
	t.Parallel()

	placed := samplePlaced()
	data := codec.Encode(placed, 20, codec.EncodeOptions{})

	// Cut deep enough to land inside a command's payload.
	truncated := data[:len(data)-6]
	_, _, err := codec.Decode(truncated)
	if err == nil {
		t.Fatalf("Decode accepted a payload truncated mid-command")
	}
}

func FuzzEncodeDecodeRoundtrip(f *testing.F) {
	f.Add(int64(1), 10)
	f.Add(int64(2), 0)

	f.Fuzz(func(t *testing.T, seed int64, n int) {
		if n < 0 || n > 64 {
			t.Skip()
		}
		rng := rand.New(rand.NewSource(seed))

		var cmds []command.Command
		for i := 0; i < n; i++ {
			if rng.Intn(2) == 0 {
				b := make([]byte, rng.Intn(16))
				rng.Read(b)
				cmds = append(cmds, command.Add{Bytes: b})
			} else {
				cmds = append(cmds, command.Copy{Offset: rng.Intn(10000), Length: rng.Intn(5000)})
			}
		}
		placed := command.Place(cmds)
		versionSize := command.TotalLen(command.Unplace(placed))

		data := codec.Encode(placed, versionSize, codec.EncodeOptions{})
		hdr, got, err := codec.Decode(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if int(hdr.VersionSize) != versionSize {
			t.Fatalf("VersionSize = %d, want %d", hdr.VersionSize, versionSize)
		}
		if diff := cmp.Diff(placed, got); diff != "" {
			t.Fatalf("roundtrip mismatch (seed=%d, n=%d):\n%s", seed, n, diff)
		}
	})
}
