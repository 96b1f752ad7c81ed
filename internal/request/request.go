package request

import (
	"bytes"
	"errors"
	"strings"

	"httpstatic/internal/content"
)

// Request holds the parsed request line. Only the first line of what the
// client sends is ever consulted.
type Request struct {
	Method    string
	Target    string // path after the leading "/", default document already substituted
	Extension string // lower-cased, never empty after Parse

	malformed bool
}

const (
	DefaultDocument  = "index.html"
	DefaultExtension = "html"
)

var ErrRequestLineTooLong = errors.New("request line too long")

// Cap on the request line; a client that sends more without a line
// terminator gets a 400 instead of growing the buffer.
const maxRequestLine = 8 * 1024 // 8 KiB

const methodGet = "GET"

// Parse splits a request line into method, target and extension.
// It never fails: anything odd is caught later by WellFormed.
//
// A target without an extension is rewritten to the default document
// before anything else looks at the request, whatever the method.
func Parse(line string) *Request {
	r := &Request{}

	tokens := strings.Fields(line)
	switch len(tokens) {
	case 0:
		r.malformed = true
	case 1:
		r.Method = tokens[0]
		r.malformed = true
	default:
		r.Method = tokens[0]
		r.Target = strings.TrimPrefix(tokens[1], "/")
	}

	if dot := strings.LastIndexByte(r.Target, '.'); dot >= 0 {
		r.Extension = strings.ToLower(r.Target[dot+1:])
	}

	if r.Extension == "" {
		r.Target = DefaultDocument
		r.Extension = DefaultExtension
	}

	return r
}

// Invalid returns a request that never passes WellFormed. The reactor uses
// it when the request line could not be read at all.
func Invalid() *Request {
	return Parse("")
}

// ParseRequestLine looks for the first line in buf.
// Returns (*Request, bytesConsumedIncludingTerminator, error).
// If no '\n' yet, returns (nil, 0, nil). Both "\r\n" and "\n" end a line.
func ParseRequestLine(buf []byte) (*Request, int, error) {
	idx := bytes.IndexByte(buf, '\n')
	if idx == -1 {
		if len(buf) > maxRequestLine {
			return nil, 0, ErrRequestLineTooLong
		}
		return nil, 0, nil
	}
	if idx > maxRequestLine {
		return nil, 0, ErrRequestLineTooLong
	}

	line := bytes.TrimSuffix(buf[:idx], []byte("\r"))
	return Parse(string(line)), idx + 1, nil
}

// WellFormed reports whether r is a GET for a target with a supported
// extension. Checked against the post-substitution extension.
func (r *Request) WellFormed(supported content.Set) bool {
	if r.malformed {
		return false
	}
	return r.Method == methodGet &&
		strings.Contains(r.Target, ".") &&
		supported.Has(r.Extension)
}

// String renders the request for the access log.
func (r *Request) String() string {
	if r.Method == "" {
		return "-"
	}
	return r.Method + " /" + r.Target
}
