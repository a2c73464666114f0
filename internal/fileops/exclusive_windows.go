//go:build windows

package fileops

import (
	"errors"

	"golang.org/x/sys/windows"
)

// TryExclusive checks whether path can be opened for reading and writing
// with no sharing. It returns ErrBusy while another process has the file
// open. The handle is closed before returning.
func TryExclusive(path string) error {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(
		name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, // no sharing
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		if errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return ErrBusy
		}
		return err
	}
	return windows.CloseHandle(h)
}
