package record

import "errors"

// ErrMalformedHeader is returned when a length-prefixed header cannot be read
// or declares more description bytes than the blob holds.
var ErrMalformedHeader = errors.New("cleaner: malformed save header")
