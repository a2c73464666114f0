package cleaner

import (
	"errors"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/fileops"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/patch"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/record"
)

// Errors re-exported from the record and patch packages.
var (
	// ErrMalformedHeader is returned when a length-prefixed save declares a
	// description longer than the file, or is too short to hold a header.
	ErrMalformedHeader = record.ErrMalformedHeader

	// ErrSpanTooShort is returned when a padded save's mod list region is
	// too short to hold the empty marker pair.
	ErrSpanTooShort = patch.ErrSpanTooShort
)

// Errors re-exported from file operations.
var (
	// ErrFileBusy is returned when a save stays locked by its writer for
	// longer than the stability timeout.
	ErrFileBusy = fileops.ErrBusy

	// ErrTooLarge is returned when a save exceeds the configured size limit.
	ErrTooLarge = fileops.ErrTooLarge
)

// ErrIO wraps read, write and backup failures from the storage layer.
var ErrIO = errors.New("cleaner: i/o failure")

// ErrorClass returns a short, stable name for the class of err, suitable for
// log attributes and metric labels.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrSpanTooShort):
		return "span_too_short"
	case errors.Is(err, ErrFileBusy):
		return "file_busy"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrIO):
		return "io_failure"
	default:
		return "error"
	}
}
