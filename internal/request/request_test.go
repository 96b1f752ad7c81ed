package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"httpstatic/internal/content"
)

func TestParse(t *testing.T) {
	// Test: plain GET with extension
	r := Parse("GET /a.html HTTP/1.0")
	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, "a.html", r.Target)
	assert.Equal(t, "html", r.Extension)

	// Test: nested path keeps its directories
	r = Parse("GET /img/cat.JPEG")
	assert.Equal(t, "img/cat.JPEG", r.Target)
	assert.Equal(t, "jpeg", r.Extension)

	// Test: root is rewritten to the default document
	r = Parse("GET / HTTP/1.0")
	assert.Equal(t, DefaultDocument, r.Target)
	assert.Equal(t, DefaultExtension, r.Extension)

	// Test: dotless target is rewritten too
	r = Parse("GET /about")
	assert.Equal(t, DefaultDocument, r.Target)
	assert.Equal(t, DefaultExtension, r.Extension)

	// Test: trailing dot means empty extension
	r = Parse("GET /notes.")
	assert.Equal(t, DefaultDocument, r.Target)

	// Substitution happens regardless of method
	r = Parse("POST /")
	assert.Equal(t, "POST", r.Method)
	assert.Equal(t, DefaultDocument, r.Target)

	// Tabs and repeated spaces split like spaces
	r = Parse("GET \t  /x.txt")
	assert.Equal(t, "x.txt", r.Target)
	assert.Equal(t, "txt", r.Extension)
}

func TestWellFormed(t *testing.T) {
	supported := content.Default().Supported

	cases := []struct {
		line string
		want bool
	}{
		{"GET /a.html", true},
		{"GET /", true},
		{"GET /pic.gif HTTP/1.0", true},
		{"GET /pic.JPG", true},
		{"POST /a.html", false},
		{"get /a.html", false},
		{"HEAD /", false},
		{"GET /a.exe", false},
		{"GET", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Parse(tc.line).WellFormed(supported), tc.line)
	}

	assert.False(t, Invalid().WellFormed(supported))
}

func TestParseRequestLine(t *testing.T) {
	// Not enough data
	r, n, err := ParseRequestLine([]byte("GET /index.ht"))
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, 0, n)

	// CRLF terminated, headers after it are left alone
	data := []byte("GET /index.html HTTP/1.0\r\nHost: localhost\r\n\r\n")
	r, n, err = ParseRequestLine(data)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "index.html", r.Target)
	assert.Equal(t, len("GET /index.html HTTP/1.0\r\n"), n)

	// Bare LF
	r, n, err = ParseRequestLine([]byte("GET /a.txt\n"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "a.txt", r.Target)
	assert.Equal(t, 11, n)

	// Oversized line without terminator
	big := make([]byte, maxRequestLine+1)
	for i := range big {
		big[i] = 'A'
	}
	_, _, err = ParseRequestLine(big)
	require.ErrorIs(t, err, ErrRequestLineTooLong)

	// Oversized line with a late terminator
	_, _, err = ParseRequestLine(append(big, '\n'))
	require.ErrorIs(t, err, ErrRequestLineTooLong)
}

func TestString(t *testing.T) {
	assert.Equal(t, "GET /index.html", Parse("GET /").String())
	assert.Equal(t, "-", Invalid().String())
}
