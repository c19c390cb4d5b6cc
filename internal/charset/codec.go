// Package charset adapts labeled text encodings for the legacy BBS wire
// formats. Outgoing form fields are percent-encoded over the bytes of the
// page's charset, and response bodies are decoded back into UTF-8.
package charset

import (
	"errors"
	"fmt"
	"strings"

	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUnknownLabel is returned when a label names no WHATWG encoding.
var ErrUnknownLabel = errors.New("unknown charset label")

// Codec is a labeled text encoding.
type Codec struct {
	label string
	name  string
	enc   encoding.Encoding
}

// Fixed codecs used where an engine dictates the encoding.
var (
	UTF8     = Codec{label: "utf-8", name: "utf-8", enc: unicode.UTF8}
	ShiftJIS = Codec{label: "shift_jis", name: "shift_jis", enc: japanese.ShiftJIS}
	EUCJP    = Codec{label: "euc-jp", name: "euc-jp", enc: japanese.EUCJP}
)

// Lookup resolves a label such as "Shift_JIS", "sjis" or "euc-jp".
// Matching is case-insensitive and ignores surrounding whitespace.
func Lookup(label string) (Codec, error) {
	enc, name := htmlcharset.Lookup(label)
	if enc == nil {
		return Codec{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}

	return Codec{label: label, name: name, enc: enc}, nil
}

// Label returns the label the codec was looked up with.
func (c Codec) Label() string {
	return c.label
}

// Name returns the canonical encoding name.
func (c Codec) Name() string {
	return c.name
}

// Encode converts UTF-8 text into the codec's byte representation.
// Characters the encoding cannot represent are written as HTML numeric
// character references, which is what browsers submit in the same case.
func (c Codec) Encode(text string) ([]byte, error) {
	out, err := encoding.HTMLEscapeUnsupported(c.enc.NewEncoder()).String(text)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}

	return []byte(out), nil
}

// Decode converts bytes in the codec's encoding to UTF-8. Invalid
// sequences become U+FFFD; decoding never fails.
func (c Codec) Decode(data []byte) string {
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}

	return string(out)
}

// PercentEncode encodes text with the codec and escapes every byte that is
// not an ASCII letter or digit as %XX.
func (c Codec) PercentEncode(text string) (string, error) {
	raw, err := c.Encode(text)
	if err != nil {
		return "", err
	}

	return PercentEncodeBytes(raw), nil
}

const upperHex = "0123456789ABCDEF"

// PercentEncodeBytes escapes every non-alphanumeric byte as %XX.
func PercentEncodeBytes(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw) * 3) //nolint:mnd // worst case: every byte escaped

	for _, b := range raw {
		if isAlphanumeric(b) {
			sb.WriteByte(b)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperHex[b>>4])
		sb.WriteByte(upperHex[b&0x0f])
	}

	return sb.String()
}

func isAlphanumeric(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
