package record

// Marker pair delimiting the mod list.
const (
	OpenTag  = "<UsedMods>"
	CloseTag = "</UsedMods>"

	// EmptyPair is the replacement written over a mod list.
	EmptyPair = OpenTag + CloseTag
)

// Span is a half-open byte range [Start, End) covering the open tag, the
// mod list and the close tag.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// FindSpan locates the first open tag and the first close tag at or after
// its end. Tags match ASCII case-insensitively; everything between them,
// newlines and nested tags included, belongs to the span.
func FindSpan(text []byte) (Span, bool) {
	start := indexFold(text, OpenTag)
	if start < 0 {
		return Span{}, false
	}
	bodyStart := start + len(OpenTag)
	rel := indexFold(text[bodyStart:], CloseTag)
	if rel < 0 {
		return Span{}, false
	}
	return Span{Start: start, End: bodyStart + rel + len(CloseTag)}, true
}

// indexFold returns the index of the first ASCII case-insensitive match of
// tag in text, or -1. Bytes outside ASCII never match, so text that is not
// valid UTF-8 is scanned safely.
func indexFold(text []byte, tag string) int {
	n := len(tag)
	for i := 0; i+n <= len(text); i++ {
		if text[i] != tag[0] {
			continue
		}
		if equalFoldASCII(text[i+1:i+n], tag[1:]) {
			return i
		}
	}
	return -1
}

func equalFoldASCII(b []byte, s string) bool {
	for i := range len(s) {
		if lower(b[i]) != lower(s[i]) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
