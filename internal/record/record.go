package record

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/sizing"
)

// HeaderSize is the size of the length-prefixed header: a 4-byte signature
// followed by the 4-byte description length.
const HeaderSize = 8

// Record describes a classified save blob.
//
// Span offsets are relative to the text region returned by Text: the whole
// blob for LayoutPadded, the description for LayoutLengthPrefixed.
type Record struct {
	Layout    Layout // never LayoutAuto
	Signature uint32 // length-prefixed only
	DescLen   int    // length-prefixed only
	Span      Span
	Found     bool
}

// TextOffset returns the blob offset at which the searched text starts.
func (r Record) TextOffset() int {
	if r.Layout == LayoutLengthPrefixed {
		return HeaderSize
	}
	return 0
}

// Text returns the region of blob that was searched for the marker pair.
func (r Record) Text(blob []byte) []byte {
	if r.Layout == LayoutLengthPrefixed {
		return blob[HeaderSize : HeaderSize+r.DescLen]
	}
	return blob
}

// Remainder returns the opaque bytes following the description.
// It is empty for padded saves.
func (r Record) Remainder(blob []byte) []byte {
	if r.Layout == LayoutLengthPrefixed {
		return blob[HeaderSize+r.DescLen:]
	}
	return nil
}

// ReadHeader reads the signature and description length of a length-prefixed
// blob and checks that the description fits.
func ReadHeader(blob []byte) (signature uint32, descLen int, err error) {
	if len(blob) < HeaderSize {
		return 0, 0, fmt.Errorf("%w: %d bytes, header needs %d", ErrMalformedHeader, len(blob), HeaderSize)
	}
	signature = binary.LittleEndian.Uint32(blob[0:4])
	declared := binary.LittleEndian.Uint32(blob[4:8])

	end, ok := sizing.AddUint64(HeaderSize, uint64(declared))
	if !ok || end > uint64(len(blob)) {
		return 0, 0, fmt.Errorf("%w: description length %d exceeds %d available bytes",
			ErrMalformedHeader, declared, len(blob)-HeaderSize)
	}
	descLen, err = sizing.ToInt(uint64(declared), ErrMalformedHeader)
	if err != nil {
		return 0, 0, err
	}
	return signature, descLen, nil
}

// Detect classifies blob under the given layout and locates the mod list.
//
// A missing marker pair is not an error: the returned record has Found set
// to false. LayoutAuto tries the length-prefixed header first and falls
// back to a padded scan when the header is malformed.
func Detect(blob []byte, layout Layout) (Record, error) {
	switch layout {
	case LayoutPadded:
		return detectPadded(blob), nil
	case LayoutLengthPrefixed:
		return detectLengthPrefixed(blob)
	case LayoutAuto:
		rec, err := detectLengthPrefixed(blob)
		if errors.Is(err, ErrMalformedHeader) {
			return detectPadded(blob), nil
		}
		return rec, err
	default:
		return Record{}, fmt.Errorf("detect: unsupported layout %s", layout)
	}
}

func detectPadded(blob []byte) Record {
	rec := Record{Layout: LayoutPadded}
	rec.Span, rec.Found = FindSpan(blob)
	return rec
}

func detectLengthPrefixed(blob []byte) (Record, error) {
	sig, descLen, err := ReadHeader(blob)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		Layout:    LayoutLengthPrefixed,
		Signature: sig,
		DescLen:   descLen,
	}
	rec.Span, rec.Found = FindSpan(rec.Text(blob))
	return rec, nil
}
