package crypto

import (
	"regexp"
	"strings"
)

// Decoration marker
const (
	DecorationStart = "{"
	DecorationStop  = "}"
)

// Matches the first unescaped {...} block. Text around the braces is allowed
// so values like "{abc=} # build server" still count as encrypted.
var decoratedRegex = regexp.MustCompile(`(?s)^.*?[^\\]?\{(.*?[^\\])\}.*$`)

// Value is a string read from a settings file: either plain text or an
// encrypted payload that was wrapped in the decoration marker.
type Value struct {
	raw       string
	payload   string
	encrypted bool
}

// ParseValue classifies s. Anything without a decoration marker, including
// the empty string, is plain text.
func ParseValue(s string) Value {
	if s == "" {
		return Value{}
	}

	m := decoratedRegex.FindStringSubmatch(s)
	if m == nil {
		return Value{raw: s}
	}

	return Value{raw: s, payload: m[1], encrypted: true}
}

// Plain returns a plain text value.
func Plain(s string) Value {
	return Value{raw: s}
}

// Encrypted reports whether the value carried a decoration marker.
func (v Value) Encrypted() bool {
	return v.encrypted
}

// Payload returns the text between the markers, empty for plain values.
func (v Value) Payload() string {
	return v.payload
}

// Text returns the value exactly as it appeared in the file.
func (v Value) Text() string {
	return v.raw
}

// IsZero reports whether the value is empty.
func (v Value) IsZero() bool {
	return v.raw == ""
}

func (v Value) String() string {
	return v.raw
}

// UnmarshalText lets a Value be decoded straight from XML character data.
// Surrounding whitespace is trimmed the same way Maven's reader does.
func (v *Value) UnmarshalText(text []byte) error {
	*v = ParseValue(strings.TrimSpace(string(text)))
	return nil
}

// MarshalText writes the value back in its original form.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.raw), nil
}

// Decorate wraps an encrypted payload in the decoration marker.
func Decorate(payload string) string {
	return DecorationStart + payload + DecorationStop
}
