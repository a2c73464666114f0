package patch

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/record"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/testutil"
)

// run detects and patches blob the way the cleaner does.
func run(t *testing.T, blob []byte, layout record.Layout) []byte {
	t.Helper()
	rec, err := record.Detect(blob, layout)
	require.NoError(t, err)
	out, err := Apply(rec, blob)
	require.NoError(t, err)
	return out
}

func TestApplyPaddedScenario(t *testing.T) {
	t.Parallel()

	span := "<UsedMods>Mod1;Mod2</UsedMods>    "
	blob := []byte("\x01\x02HEAD" + span + "\x00TAIL")

	rec, err := record.Detect(blob, record.LayoutPadded)
	require.NoError(t, err)
	require.True(t, rec.Found)
	assert.Equal(t, 30, rec.Span.Len())

	out, err := Apply(rec, blob)
	require.NoError(t, err)
	assert.Len(t, out, len(blob))

	want := "\x01\x02HEAD" + "<UsedMods></UsedMods>" + strings.Repeat(" ", 9) + "    " + "\x00TAIL"
	assert.Equal(t, want, string(out))
}

func TestApplyPaddedFullSpanPadding(t *testing.T) {
	t.Parallel()

	// A 35-byte span is replaced by the empty pair and 14 spaces.
	body := strings.Repeat("x", 35-len(record.EmptyPair))
	blob := []byte("AB<UsedMods>" + body + "</UsedMods>CD")
	out := run(t, blob, record.LayoutPadded)

	assert.Len(t, out, len(blob))
	assert.Equal(t, "AB<UsedMods></UsedMods>"+strings.Repeat(" ", 14)+"CD", string(out))
}

func TestApplyPaddedDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	blob := []byte("<UsedMods>abc</UsedMods>")
	orig := bytes.Clone(blob)
	_ = run(t, blob, record.LayoutPadded)
	assert.Equal(t, orig, blob)
}

func TestApplyPaddedSpanTooShort(t *testing.T) {
	t.Parallel()

	rec := record.Record{
		Layout: record.LayoutPadded,
		Span:   record.Span{Start: 0, End: 20},
		Found:  true,
	}
	_, err := Apply(rec, make([]byte, 32))
	assert.ErrorIs(t, err, ErrSpanTooShort)
}

func TestApplyPaddedSpanOutOfRange(t *testing.T) {
	t.Parallel()

	rec := record.Record{
		Layout: record.LayoutPadded,
		Span:   record.Span{Start: 10, End: 40},
		Found:  true,
	}
	_, err := Apply(rec, make([]byte, 32))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSpanTooShort)
}

func TestApplyLengthPrefixedScenario(t *testing.T) {
	t.Parallel()

	desc := "<UsedMods>ModA,ModB</UsedMods>extra text"
	require.Len(t, desc, 40)
	remainder := []byte{0x00, 0xff, 0x10, 'x', 0x00}
	blob := testutil.LengthPrefixed(0x53415645, desc, remainder)

	out := run(t, blob, record.LayoutLengthPrefixed)

	newDesc := "<UsedMods></UsedMods>extra text"
	assert.Equal(t, uint32(0x53415645), binary.LittleEndian.Uint32(out[0:4]))
	assert.Equal(t, uint32(len(newDesc)), binary.LittleEndian.Uint32(out[4:8])) //nolint:gosec // small
	assert.Equal(t, newDesc, string(out[8:8+len(newDesc)]))
	assert.Equal(t, remainder, out[8+len(newDesc):])
	assert.Len(t, out, 8+len(newDesc)+len(remainder))
}

func TestApplyLengthPrefixedErasesAnyContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		desc string
		want string
	}{
		{"multiline", "a<UsedMods>\r\nX\nY\n</UsedMods>b", "a<UsedMods></UsedMods>b"},
		{"mixed case markers", "<usedmods>X</USEDMODS>", "<UsedMods></UsedMods>"},
		{"nested tags", "<UsedMods><Mod id=\"1\"/><UsedMods></UsedMods>tail", "<UsedMods></UsedMods>tail"},
		{"utf-8 content", "Über <UsedMods>Ünïcödé</UsedMods> ☃", "Über <UsedMods></UsedMods> ☃"},
		{"only first pair", "<UsedMods>A</UsedMods><UsedMods>B</UsedMods>", "<UsedMods></UsedMods><UsedMods>B</UsedMods>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			remainder := []byte("REST")
			out := run(t, testutil.LengthPrefixed(1, tt.desc, remainder), record.LayoutLengthPrefixed)
			n := binary.LittleEndian.Uint32(out[4:8])
			assert.Equal(t, tt.want, string(out[8:8+n]))
			assert.Equal(t, remainder, out[8+n:])
		})
	}
}

func TestApplyLengthPrefixedKeepsInvalidUTF8(t *testing.T) {
	t.Parallel()

	desc := "\xff\xfe<UsedMods>x</UsedMods>\xc3"
	out := run(t, testutil.LengthPrefixed(1, desc, nil), record.LayoutLengthPrefixed)
	assert.Equal(t, "\xff\xfe<UsedMods></UsedMods>\xc3", string(out[8:]))
}

func TestApplyNotFound(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		blob   []byte
		layout record.Layout
	}{
		{"padded", []byte("no marker here"), record.LayoutPadded},
		{"length-prefixed", testutil.LengthPrefixed(1, "plain", []byte("<UsedMods>x</UsedMods>")), record.LayoutLengthPrefixed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := run(t, tc.blob, tc.layout)
			assert.Equal(t, tc.blob, out)
			assert.False(t, Changed(tc.blob, out))
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		blob   []byte
		layout record.Layout
	}{
		{"padded", []byte("x<UsedMods>Mod1;Mod2;Mod3</UsedMods>   y"), record.LayoutPadded},
		{"padded already empty", []byte("<UsedMods></UsedMods>"), record.LayoutPadded},
		{"length-prefixed", testutil.LengthPrefixed(3, "d <UsedMods>M</UsedMods> e", []byte{1, 2}), record.LayoutLengthPrefixed},
		{"auto", testutil.LengthPrefixed(3, "<UsedMods>M</UsedMods>", nil), record.LayoutAuto},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			once := run(t, tc.blob, tc.layout)
			twice := run(t, once, tc.layout)
			assert.Equal(t, once, twice)
			assert.False(t, Changed(once, twice))
		})
	}
}
