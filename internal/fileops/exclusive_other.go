//go:build !windows && !(linux || darwin || freebsd || openbsd || netbsd || dragonfly)

package fileops

import "os"

// TryExclusive checks whether path can be opened for reading and writing.
// Platforms without advisory locks cannot detect a concurrent writer, so
// only open failures are reported.
func TryExclusive(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0) //nolint:gosec // path comes from the watched tree
	if err != nil {
		return err
	}
	return f.Close()
}
