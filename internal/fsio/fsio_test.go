package fsio_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/deltacomp/deltac/internal/fsio"
)

func TestOpenMappedReadsContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ref.bin")
	want := []byte("the quick brown fox")
	if err := os.WriteFile(path, want, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := fsio.OpenMapped(path)
	if err != nil {
		t.Fatalf("OpenMapped: %v", err)
	}
	defer func() { _ = m.Close() }()

	if !bytes.Equal(m.Bytes(), want) {
		t.Fatalf("Bytes() = %q, want %q", m.Bytes(), want)
	}
}

func TestOpenMappedEmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := fsio.OpenMapped(path)
	if err != nil {
		t.Fatalf("OpenMapped on empty file: %v", err)
	}
	defer func() { _ = m.Close() }()

	if len(m.Bytes()) != 0 {
		t.Fatalf("Bytes() = %v, want empty", m.Bytes())
	}
}

func TestOpenMappedMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := fsio.OpenMapped(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Fatalf("OpenMapped on a missing path did not error")
	}
}

func TestWriteAtomicThenReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	want := []byte("atomic write payload")

	if err := fsio.WriteAtomic(path, want); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	got, err := fsio.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadFile = %q, want %q", got, want)
	}
}

func TestWriteAtomicOverwritesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	if err := fsio.WriteAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteAtomic (first): %v", err)
	}
	if err := fsio.WriteAtomic(path, []byte("second-longer-value")); err != nil {
		t.Fatalf("WriteAtomic (second): %v", err)
	}

	got, err := fsio.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "second-longer-value" {
		t.Fatalf("ReadFile = %q, want %q", got, "second-longer-value")
	}
}
