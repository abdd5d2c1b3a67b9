// Package fsio is dlt's filesystem collaborator: it memory-maps
// reference and version files read-only and writes delta/decoded
// output atomically. The core packages never perform I/O themselves
// (spec Section 5, "the core itself does not perform I/O").
package fsio

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// MappedFile is a read-only memory-mapped file. Close unmaps it.
type MappedFile struct {
	data []byte
	f    *os.File
}

// OpenMapped mmaps path read-only and returns its contents as a byte
// slice backed directly by the mapping (no copy).
func OpenMapped(path string) (*MappedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path is intentionally caller-controlled
	if err != nil {
		return nil, fmt.Errorf("fsio: opening %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("fsio: stat %s: %w", path, err)
	}

	size := info.Size()
	if size == 0 {
		// mmap rejects zero-length mappings; an empty file is a valid
		// empty reference or version.
		return &MappedFile{data: []byte{}, f: f}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("fsio: mmap %s: %w", path, err)
	}

	return &MappedFile{data: data, f: f}, nil
}

// Bytes returns the mapped contents. Valid only until Close.
func (m *MappedFile) Bytes() []byte { return m.data }

// Close unmaps the file and closes its descriptor.
func (m *MappedFile) Close() error {
	var err error
	if len(m.data) > 0 {
		err = unix.Munmap(m.data)
	}
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteAtomic writes data to path atomically: the caller never
// observes a partially written delta or reconstructed version, even
// if the process is killed mid-write.
func WriteAtomic(path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("fsio: writing %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a small file whole (used for delta files, which are
// parsed rather than mapped).
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally caller-controlled
	if err != nil {
		return nil, fmt.Errorf("fsio: reading %s: %w", path, err)
	}
	return data, nil
}
