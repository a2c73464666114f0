package cleaner

import "github.com/neonizer/KCD2-Modlist-Cleaner/internal/record"

// Outcome is the result of a successful patch attempt.
type Outcome uint8

const (
	// NothingToDo means the save had no mod list, or it was already empty.
	// The file was not rewritten.
	NothingToDo Outcome = iota

	// Cleaned means the mod list was erased and the save rewritten.
	Cleaned
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case Cleaned:
		return "cleaned"
	case NothingToDo:
		return "nothing_to_do"
	default:
		return "unknown"
	}
}

// Layout selects how saves are parsed.
type Layout = record.Layout

// Layouts re-exported from the record package.
const (
	LayoutAuto           = record.LayoutAuto
	LayoutPadded         = record.LayoutPadded
	LayoutLengthPrefixed = record.LayoutLengthPrefixed
)

// ParseLayout parses "auto", "padded" or "length-prefixed".
func ParseLayout(s string) (Layout, error) {
	return record.ParseLayout(s)
}
