//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package fileops

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// TryExclusive checks whether path can be opened for reading and writing
// with an exclusive lock. It returns ErrBusy while another process holds a
// conflicting lock. The lock is released before returning.
func TryExclusive(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0) //nolint:gosec // path comes from the watched tree
	if err != nil {
		return err
	}
	defer f.Close()

	fd := int(f.Fd()) //nolint:gosec // fd fits in int
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return ErrBusy
		}
		return err
	}
	return unix.Flock(fd, unix.LOCK_UN)
}
