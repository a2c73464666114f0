package record

import (
	"fmt"
	"strings"
)

// Layout identifies how a save blob stores its description text.
type Layout uint8

const (
	// LayoutAuto probes for a length-prefixed header and falls back to
	// LayoutPadded when the header does not fit the blob.
	LayoutAuto Layout = iota

	// LayoutPadded is a fixed-size blob with the marker pair at an
	// arbitrary offset.
	LayoutPadded

	// LayoutLengthPrefixed is a signature, a uint32 description length,
	// the description and an opaque remainder.
	LayoutLengthPrefixed
)

// String returns the configuration name of the layout.
func (l Layout) String() string {
	switch l {
	case LayoutAuto:
		return "auto"
	case LayoutPadded:
		return "padded"
	case LayoutLengthPrefixed:
		return "length-prefixed"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

// ParseLayout parses a layout name as produced by String.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LayoutAuto, nil
	case "padded":
		return LayoutPadded, nil
	case "length-prefixed", "lengthprefixed", "prefixed":
		return LayoutLengthPrefixed, nil
	default:
		return LayoutAuto, fmt.Errorf("unknown layout %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so layouts can be read
// from environment configuration.
func (l *Layout) UnmarshalText(text []byte) error {
	parsed, err := ParseLayout(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
