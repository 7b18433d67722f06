// Package charset resolves character set names and encodes credential text.
package charset

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

var (
	// ErrUnsupported is returned for character set names with no known encoder.
	ErrUnsupported = errors.New("unsupported character set")

	// ErrUnencodable is returned when text has characters the encoding cannot represent.
	ErrUnencodable = errors.New("text not representable in character set")
)

// Latin1 is ISO-8859-1, the default for Basic credentials.
var Latin1 encoding.Encoding = charmap.ISO8859_1

// ASCII is US-ASCII, the default for NTLM fields.
var ASCII = asciiEncoding()

func asciiEncoding() encoding.Encoding {
	if enc, err := Lookup("US-ASCII"); err == nil {
		return enc
	}
	return Latin1
}

// Lookup returns the encoding registered under an IANA name or alias,
// such as "ISO-8859-1", "latin1", "UTF-8" or "windows-1252".
func Lookup(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
	// ianaindex knows some names it has no implementation for.
	if enc == nil {
		return nil, fmt.Errorf("%w: %q has no encoder", ErrUnsupported, name)
	}
	return enc, nil
}

// Name returns the preferred MIME name of enc, or "unknown".
func Name(enc encoding.Encoding) string {
	name, err := ianaindex.MIME.Name(enc)
	if err != nil {
		return "unknown"
	}
	return name
}

// Encode converts s to enc, failing on any unrepresentable rune.
func Encode(enc encoding.Encoding, s string) ([]byte, error) {
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnencodable, err)
	}
	return b, nil
}

// EncodeLenient converts s to enc, replacing unrepresentable runes.
func EncodeLenient(enc encoding.Encoding, s string) []byte {
	b, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		// Only invalid UTF-8 in s gets here.
		return []byte(s)
	}
	return b
}
