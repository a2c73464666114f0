// Package patch erases the mod list located by package record and
// re-serializes the save so it stays valid for its layout.
package patch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/record"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/sizing"
)

// ErrSpanTooShort is returned when a padded span is shorter than the empty
// marker pair and erasing it would grow the file.
var ErrSpanTooShort = errors.New("cleaner: mod list span too short for empty marker pair")

// Apply returns a copy of blob with the mod list described by rec erased.
//
// When rec.Found is false the input slice is returned unchanged. The input
// is never modified.
func Apply(rec record.Record, blob []byte) ([]byte, error) {
	if !rec.Found {
		return blob, nil
	}
	switch rec.Layout {
	case record.LayoutPadded:
		return applyPadded(rec.Span, blob)
	case record.LayoutLengthPrefixed:
		return applyLengthPrefixed(rec, blob)
	default:
		return nil, fmt.Errorf("patch: unsupported layout %s", rec.Layout)
	}
}

// Changed reports whether out differs from in.
func Changed(in, out []byte) bool {
	return !bytes.Equal(in, out)
}

// applyPadded overwrites the span in place with the empty pair followed by
// space padding, keeping the blob length.
func applyPadded(span record.Span, blob []byte) ([]byte, error) {
	if span.Start < 0 || span.End > len(blob) || span.Start > span.End {
		return nil, fmt.Errorf("patch: span [%d,%d) outside blob of %d bytes", span.Start, span.End, len(blob))
	}
	if span.Len() < len(record.EmptyPair) {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrSpanTooShort, span.Len(), len(record.EmptyPair))
	}

	out := bytes.Clone(blob)
	region := out[span.Start:span.End]
	n := copy(region, record.EmptyPair)
	for i := n; i < len(region); i++ {
		region[i] = ' '
	}
	return out, nil
}

// applyLengthPrefixed splices the empty pair into the description and
// rebuilds the header around it. The remainder is copied verbatim.
func applyLengthPrefixed(rec record.Record, blob []byte) ([]byte, error) {
	if rec.DescLen < 0 || record.HeaderSize+rec.DescLen > len(blob) {
		return nil, fmt.Errorf("%w: description length %d exceeds blob", record.ErrMalformedHeader, rec.DescLen)
	}
	desc := rec.Text(blob)
	span := rec.Span
	if span.Start < 0 || span.End > len(desc) || span.Start > span.End {
		return nil, fmt.Errorf("patch: span [%d,%d) outside description of %d bytes", span.Start, span.End, len(desc))
	}
	remainder := rec.Remainder(blob)

	newLen := span.Start + len(record.EmptyPair) + (len(desc) - span.End)
	declared, err := sizing.ToUint32(newLen, record.ErrMalformedHeader)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, record.HeaderSize+newLen+len(remainder))
	out = binary.LittleEndian.AppendUint32(out, rec.Signature)
	out = binary.LittleEndian.AppendUint32(out, declared)
	out = append(out, desc[:span.Start]...)
	out = append(out, record.EmptyPair...)
	out = append(out, desc[span.End:]...)
	out = append(out, remainder...)
	return out, nil
}
