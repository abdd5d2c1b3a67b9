// Package codec serialises and parses the binary delta format
// (spec 4.I): magic + flags + version_size header, an optional
// embedded integrity digest of R and V, a repeated COPY/ADD command
// stream, and an END sentinel.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/deltacomp/deltac/pkg/command"
	"github.com/deltacomp/deltac/pkg/digest"
)

// Wire-format constants.
const (
	u32Size = 4

	cmdEnd  = 0x00
	cmdCopy = 0x01
	cmdAdd  = 0x02

	copyPayloadSize = 3 * u32Size
	addHeaderSize   = u32Size + u32Size

	// flagInplace marks the delta as an in-place delta (applies against
	// a single buffer pre-loaded with R).
	flagInplace = 1 << 0
	// flagHasDigest marks that a digest block follows version_size.
	flagHasDigest = 1 << 1
	// flagDigestCRC selects CRC-64/XZ over SHAKE128 when flagHasDigest is set.
	flagDigestCRC = 1 << 2
)

var magic = [4]byte{'D', 'L', 'T', 0x01}

const headerSize = len(magic) + 1 + u32Size

// Errors returned by Decode.
var (
	ErrBadMagic       = errors.New("codec: bad magic")
	ErrTruncated      = errors.New("codec: truncated payload")
	ErrUnknownCommand = errors.New("codec: unknown command type")
	ErrReservedFlags  = errors.New("codec: reserved flag bits set")
	ErrIntegrity      = errors.New("codec: integrity digest mismatch")
)

// Header describes a delta's envelope, independent of its command stream.
type Header struct {
	Inplace     bool
	VersionSize uint32
	DigestKind  digest.Kind
	RDigest     []byte
	VDigest     []byte
}

// EncodeOptions configures Encode.
type EncodeOptions struct {
	Inplace bool
	// DigestKind, if not digest.None, embeds a digest of R then V in
	// the header, computed from RBytes/VBytes unless RawRDigest/
	// RawVDigest are already set (e.g. when re-encoding a delta whose
	// reference and version are known not to have changed, such as
	// inplace conversion).
	DigestKind digest.Kind
	RBytes     []byte
	VBytes     []byte
	RawRDigest []byte
	RawVDigest []byte
}

func writeU32(p []byte, v uint32) []byte {
	var b [u32Size]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(p, b[:]...)
}

func readU32(p []byte) uint32 {
	return binary.BigEndian.Uint32(p)
}

// Encode serialises placed commands into the binary delta format,
// pre-estimating the output buffer size from header + commands*14 +
// sum of Add payload lengths + 1, per spec 4.I.
func Encode(cmds []command.PlacedCommand, versionSize int, opts EncodeOptions) []byte {
	est := headerSize + len(cmds)*14 + 1
	for _, pc := range cmds {
		if a, ok := pc.Cmd.(command.Add); ok {
			est += len(a.Bytes)
		}
	}
	if opts.DigestKind != digest.None {
		est += 2 * opts.DigestKind.Size()
	}

	buf := make([]byte, 0, est)
	buf = append(buf, magic[:]...)

	flags := byte(0)
	if opts.Inplace {
		flags |= flagInplace
	}
	if opts.DigestKind == digest.SHAKE128 {
		flags |= flagHasDigest
	} else if opts.DigestKind == digest.CRC64XZ {
		flags |= flagHasDigest | flagDigestCRC
	}
	buf = append(buf, flags)
	buf = writeU32(buf, uint32(versionSize))

	if opts.DigestKind != digest.None {
		rDigest := opts.RawRDigest
		if rDigest == nil {
			rDigest = digest.Sum(opts.DigestKind, opts.RBytes)
		}
		vDigest := opts.RawVDigest
		if vDigest == nil {
			vDigest = digest.Sum(opts.DigestKind, opts.VBytes)
		}
		buf = append(buf, rDigest...)
		buf = append(buf, vDigest...)
	}

	for _, pc := range cmds {
		switch c := pc.Cmd.(type) {
		case command.Copy:
			buf = append(buf, cmdCopy)
			buf = writeU32(buf, uint32(c.Offset))
			buf = writeU32(buf, uint32(pc.Dst))
			buf = writeU32(buf, uint32(c.Length))
		case command.Add:
			buf = append(buf, cmdAdd)
			buf = writeU32(buf, uint32(pc.Dst))
			buf = writeU32(buf, uint32(len(c.Bytes)))
			buf = append(buf, c.Bytes...)
		}
	}

	buf = append(buf, cmdEnd)
	return buf
}

// Decode parses a delta byte stream into its header and placed
// command list. It rejects bad magic, truncated payloads, and unknown
// command types; END terminates parsing even if trailing bytes remain.
func Decode(data []byte) (Header, []command.PlacedCommand, error) {
	var hdr Header
	if len(data) < headerSize || data[0] != magic[0] || data[1] != magic[1] ||
		data[2] != magic[2] || data[3] != magic[3] {
		return hdr, nil, ErrBadMagic
	}

	flags := data[4]
	if flags&^(flagInplace|flagHasDigest|flagDigestCRC) != 0 {
		return hdr, nil, ErrReservedFlags
	}
	hdr.Inplace = flags&flagInplace != 0
	hdr.VersionSize = readU32(data[5:9])
	pos := headerSize

	if flags&flagHasDigest != 0 {
		hdr.DigestKind = digest.SHAKE128
		if flags&flagDigestCRC != 0 {
			hdr.DigestKind = digest.CRC64XZ
		}
		size := hdr.DigestKind.Size()
		if pos+2*size > len(data) {
			return hdr, nil, ErrTruncated
		}
		hdr.RDigest = append([]byte(nil), data[pos:pos+size]...)
		pos += size
		hdr.VDigest = append([]byte(nil), data[pos:pos+size]...)
		pos += size
	}

	var cmds []command.PlacedCommand
	for pos < len(data) {
		t := data[pos]
		pos++

		switch t {
		case cmdEnd:
			return hdr, cmds, nil
		case cmdCopy:
			if pos+copyPayloadSize > len(data) {
				return hdr, nil, fmt.Errorf("%w: COPY", ErrTruncated)
			}
			src := readU32(data[pos:])
			dst := readU32(data[pos+u32Size:])
			length := readU32(data[pos+2*u32Size:])
			pos += copyPayloadSize
			cmds = append(cmds, command.PlacedCommand{
				Cmd: command.Copy{Offset: int(src), Length: int(length)},
				Dst: int(dst),
			})
		case cmdAdd:
			if pos+addHeaderSize > len(data) {
				return hdr, nil, fmt.Errorf("%w: ADD header", ErrTruncated)
			}
			dst := readU32(data[pos:])
			length := readU32(data[pos+u32Size:])
			pos += addHeaderSize
			if pos+int(length) > len(data) {
				return hdr, nil, fmt.Errorf("%w: ADD data", ErrTruncated)
			}
			b := make([]byte, length)
			copy(b, data[pos:pos+int(length)])
			pos += int(length)
			cmds = append(cmds, command.PlacedCommand{
				Cmd: command.Add{Bytes: b},
				Dst: int(dst),
			})
		default:
			return hdr, nil, fmt.Errorf("%w: 0x%02x", ErrUnknownCommand, t)
		}
	}

	return hdr, cmds, nil
}

// VerifyReferenceDigest checks the header's R digest (if present)
// against the actual reference bytes, returning ErrIntegrity on
// mismatch.
func (h Header) VerifyReferenceDigest(r []byte) error {
	if h.DigestKind == digest.None {
		return nil
	}
	if !digest.Verify(h.DigestKind, r, h.RDigest) {
		return fmt.Errorf("%w: reference", ErrIntegrity)
	}
	return nil
}

// VerifyVersionDigest checks the header's V digest (if present)
// against the reconstructed version bytes, returning ErrIntegrity on
// mismatch.
func (h Header) VerifyVersionDigest(v []byte) error {
	if h.DigestKind == digest.None {
		return nil
	}
	if !digest.Verify(h.DigestKind, v, h.VDigest) {
		return fmt.Errorf("%w: version", ErrIntegrity)
	}
	return nil
}
