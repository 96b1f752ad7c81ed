package headers

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// Headers is a parsed header block keyed by lower-cased field name.
type Headers map[string]string

// Field is one header line in the order it is written on the wire.
type Field struct {
	Name  string
	Value string
}

// Fields is an ordered header block. Responses must emit their headers in a
// fixed order, which a map cannot give.
type Fields []Field

var (
	ErrMalformedHeaderLine = errors.New("malformed header-line")
	ErrHeaderLineTooLong   = errors.New("header line too long")

	CRLF = []byte("\r\n")
)

// Per-line cap; enforce a total cap at a higher layer.
const maxHeaderLine = 8 * 1024 // 8 KiB

func NewHeaders() Headers { return Headers{} }

// Get is case-insensitive.
func (h Headers) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Int returns the named header as a non-negative integer.
func (h Headers) Int(name string) (int64, bool) {
	v := strings.TrimSpace(h.Get(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Set joins repeated fields with a comma.
func (h Headers) Set(name, value string) {
	name = strings.ToLower(name)
	if old, ok := h[name]; ok {
		h[name] = old + "," + value
		return
	}
	h[name] = value
}

// Parse consumes "Name: value\r\n" lines from data until the empty line.
// Returns bytes consumed, whether the terminating empty line was seen, and
// any framing error. With an incomplete line it returns what it has parsed
// so far and done=false.
func (h Headers) Parse(data []byte) (n int, done bool, err error) {
	off := 0
	for {
		idx := bytes.Index(data[off:], CRLF)
		if idx == -1 {
			if len(data)-off > maxHeaderLine {
				return 0, false, ErrHeaderLineTooLong
			}
			return off, false, nil
		}
		if idx > maxHeaderLine {
			return 0, false, ErrHeaderLineTooLong
		}

		line := data[off : off+idx]
		off += idx + len(CRLF)

		if len(line) == 0 {
			return off, true, nil
		}

		name, value, err := parseLine(line)
		if err != nil {
			return 0, false, err
		}
		h.Set(name, value)
	}
}

func parseLine(line []byte) (string, string, error) {
	// obsolete folding
	if line[0] == ' ' || line[0] == '\t' {
		return "", "", ErrMalformedHeaderLine
	}

	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return "", "", ErrMalformedHeaderLine
	}

	name := line[:colon]
	if !isToken(name) {
		return "", "", ErrMalformedHeaderLine
	}

	return strings.ToLower(string(name)), strings.Trim(string(line[colon+1:]), " \t"), nil
}

// Add appends a field and returns the extended block.
func (f Fields) Add(name, value string) Fields {
	return append(f, Field{Name: name, Value: value})
}

// AppendTo renders the block, including the terminating empty line, onto b.
func (f Fields) AppendTo(b []byte) []byte {
	for _, field := range f {
		b = append(b, field.Name...)
		b = append(b, ": "...)
		b = append(b, field.Value...)
		b = append(b, CRLF...)
	}
	return append(b, CRLF...)
}

var tokenChars [256]bool

func init() {
	for c := byte('0'); c <= '9'; c++ {
		tokenChars[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		tokenChars[c] = true
	}
	for c := byte('a'); c <= 'z'; c++ {
		tokenChars[c] = true
	}
	for _, c := range []byte("!#$%&'*+-.^_`|~") {
		tokenChars[c] = true
	}
}

// isToken reports whether b is a non-empty RFC 9110 token. Whitespace is
// not a token character, so "Host :" is rejected here.
func isToken(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !tokenChars[c] {
			return false
		}
	}
	return true
}
