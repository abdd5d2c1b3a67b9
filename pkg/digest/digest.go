// Package digest computes the optional integrity digests the binary
// codec can embed in a delta header (spec 4.I): a 16-byte SHAKE128
// digest or an 8-byte CRC-64/XZ checksum.
package digest

import (
	"encoding/binary"
	"hash/crc64"

	"golang.org/x/crypto/sha3"
)

// Kind identifies which digest algorithm a header carries.
type Kind byte

const (
	// None means the header carries no digest at all.
	None Kind = iota
	// SHAKE128 is a 16-byte SHAKE128 extendable-output digest.
	SHAKE128
	// CRC64XZ is an 8-byte CRC-64/XZ (ECMA-182, reflected) checksum.
	CRC64XZ
)

// String names the digest kind for display (e.g. in "dlt info" output).
func (k Kind) String() string {
	switch k {
	case SHAKE128:
		return "shake128"
	case CRC64XZ:
		return "crc64xz"
	default:
		return "none"
	}
}

// Size returns the on-wire byte length of a digest of this kind.
func (k Kind) Size() int {
	switch k {
	case SHAKE128:
		return 16
	case CRC64XZ:
		return 8
	default:
		return 0
	}
}

// crc64Table uses the ECMA-182 polynomial, the same reflected
// polynomial CRC-64/XZ (as used by the xz and 7-Zip formats) is built
// on.
var crc64Table = crc64.MakeTable(crc64.ECMA)

// Sum computes the digest of data for the given kind. Sum of None is
// always empty.
func Sum(kind Kind, data []byte) []byte {
	switch kind {
	case SHAKE128:
		out := make([]byte, 16)
		sha3.ShakeSum128(out, data)
		return out
	case CRC64XZ:
		sum := crc64.Checksum(data, crc64Table)
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, sum)
		return out
	default:
		return nil
	}
}

// Verify reports whether data's digest of the given kind equals want.
func Verify(kind Kind, data, want []byte) bool {
	got := Sum(kind, data)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
