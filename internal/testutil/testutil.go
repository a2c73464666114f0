// Package testutil builds save fixtures for tests.
package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// LengthPrefixed builds a length-prefixed save:
// signature, little-endian description length, description, remainder.
func LengthPrefixed(signature uint32, desc string, remainder []byte) []byte {
	blob := make([]byte, 8, 8+len(desc)+len(remainder))
	binary.LittleEndian.PutUint32(blob[0:4], signature)
	binary.LittleEndian.PutUint32(blob[4:8], uint32(len(desc))) //nolint:gosec // fixtures are small
	blob = append(blob, desc...)
	return append(blob, remainder...)
}

// Padded builds a padded save: an opaque prefix, a mod list followed by pad
// spaces, and an opaque suffix.
func Padded(prefix, mods string, pad int, suffix string) []byte {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString("<UsedMods>")
	b.WriteString(mods)
	b.WriteString("</UsedMods>")
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(suffix)
	return []byte(b.String())
}

// Description returns the description and remainder of a length-prefixed
// save, failing the test if the header does not fit.
func Description(t testing.TB, blob []byte) (desc string, remainder []byte) {
	t.Helper()
	if len(blob) < 8 {
		t.Fatalf("blob of %d bytes has no header", len(blob))
	}
	n := int(binary.LittleEndian.Uint32(blob[4:8]))
	if 8+n > len(blob) {
		t.Fatalf("description length %d exceeds blob of %d bytes", n, len(blob))
	}
	return string(blob[8 : 8+n]), blob[8+n:]
}

// WriteSave writes data to dir/name, creating parent directories, and
// returns the full path.
func WriteSave(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ReadSave reads the file at path, failing the test on error.
func ReadSave(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test fixture path
	if err != nil {
		t.Fatal(err)
	}
	return data
}
