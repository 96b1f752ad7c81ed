package response

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"httpstatic/internal/headers"
)

// Head is a response status line and header block as seen by a client.
type Head struct {
	Proto   string
	Status  StatusCode
	Reason  string
	Headers headers.Headers
}

var (
	ErrMalformedStatusLine = errors.New("malformed status-line")
	ErrIncompleteHead      = errors.New("response ended before end of headers")
)

// ParseHead parses a status line and headers from data.
// Returns (*Head, bytesConsumed, error). If the header block is not
// complete yet, returns (nil, 0, nil).
func ParseHead(data []byte) (*Head, int, error) {
	idx := bytes.Index(data, headers.CRLF)
	if idx == -1 {
		return nil, 0, nil
	}

	h, err := parseStatusLine(data[:idx])
	if err != nil {
		return nil, 0, err
	}

	off := idx + len(headers.CRLF)
	n, done, err := h.Headers.Parse(data[off:])
	if err != nil {
		return nil, 0, err
	}
	if !done {
		return nil, 0, nil
	}
	return h, off + n, nil
}

func parseStatusLine(line []byte) (*Head, error) {
	// HTTP/1.0 404 Not Found
	proto, rest, ok := bytes.Cut(line, []byte(" "))
	if !ok || !bytes.HasPrefix(proto, []byte("HTTP/")) {
		return nil, ErrMalformedStatusLine
	}
	code, reason, _ := bytes.Cut(rest, []byte(" "))
	status, err := strconv.Atoi(string(code))
	if err != nil || len(code) != 3 {
		return nil, fmt.Errorf("%w: status %q", ErrMalformedStatusLine, code)
	}
	return &Head{
		Proto:   string(proto),
		Status:  StatusCode(status),
		Reason:  string(reason),
		Headers: headers.NewHeaders(),
	}, nil
}

// ReadResponse reads r until EOF, which is how this server ends every
// response, and splits it into head and body.
func ReadResponse(r io.Reader) (*Head, []byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	h, n, err := ParseHead(data)
	if err != nil {
		return nil, nil, err
	}
	if h == nil {
		return nil, nil, ErrIncompleteHead
	}
	return h, data[n:], nil
}
