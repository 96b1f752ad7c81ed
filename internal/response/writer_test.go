package response

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"httpstatic/internal/content"
)

func TestRenderErrorPages(t *testing.T) {
	table := content.Default()

	for _, status := range []StatusCode{BAD_REQUEST, FORBIDDEN, NOT_FOUND} {
		p := Render(Decision{Status: status, Extension: "gif"}, table, fixedNow)
		require.Nil(t, p.File)
		assert.Equal(t, status, p.Status)
		assert.Equal(t, table.ErrorBody(int(status)), p.Body)
		assert.Equal(t, int64(len(p.Body)), p.ContentLength)

		h, n, err := ParseHead(p.Header)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, len(p.Header), n)
		assert.Equal(t, "HTTP/1.0", h.Proto)
		assert.Equal(t, status, h.Status)
		assert.Equal(t, status.Reason(), h.Reason)
		assert.Equal(t, content.HTML, h.Headers.Get("Content-Type"))
		assert.Equal(t, strconv.Itoa(len(p.Body)), h.Headers.Get("Content-Length"))
	}
}

func TestRenderHeaderOrder(t *testing.T) {
	p := Render(Decision{Status: NOT_FOUND}, content.Default(), fixedNow)
	assert.Equal(t,
		"HTTP/1.0 404 Not Found\r\n"+
			"Content-Length: 39\r\n"+
			"Content-Type: text/html; charset=utf-8\r\n"+
			"Date: "+fixedNow.Format(DateLayout)+"\r\n"+
			"\r\n",
		string(p.Header))
}

func TestRenderFileRoundTrip(t *testing.T) {
	table := content.Default()
	dir := t.TempDir()

	for ext := range table.Supported {
		path := filepath.Join(dir, "f."+ext)
		data := []byte(strings.Repeat("x", 37))
		require.NoError(t, os.WriteFile(path, data, 0o644))

		d := Decision{Status: OK, Extension: ext, Path: path, Size: int64(len(data))}
		p := Render(d, table, fixedNow)
		require.NotNil(t, p.File, ext)
		assert.Nil(t, p.Body)

		h, _, err := ParseHead(p.Header)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, OK, h.Status, ext)
		n, ok := h.Headers.Int("Content-Length")
		require.True(t, ok)
		assert.Equal(t, d.Size, n, ext)

		want := table.Type(ext)
		if ext == "html" {
			want = content.HTML
		}
		assert.Equal(t, want, h.Headers.Get("Content-Type"), ext)

		require.NoError(t, p.Close())
		assert.Nil(t, p.File)
		require.NoError(t, p.Close())
	}
}

func TestRenderUsesDecisionSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(path, make([]byte, 200), 0o644))

	d := Decision{Status: OK, Extension: "html", Path: path, Size: 200}

	// file grows after the decision
	require.NoError(t, os.WriteFile(path, make([]byte, 500), 0o644))

	p := Render(d, content.Default(), fixedNow)
	defer p.Close()
	assert.Equal(t, int64(200), p.ContentLength)
	assert.Contains(t, string(p.Header), "Content-Length: 200\r\n")
	assert.Contains(t, string(p.Header), "Content-Type: text/html; charset=utf-8\r\n")
}

func TestRenderVanishedFile(t *testing.T) {
	d := Decision{Status: OK, Extension: "txt", Path: filepath.Join(t.TempDir(), "gone.txt"), Size: 3}
	p := Render(d, content.Default(), fixedNow)
	assert.Equal(t, NOT_FOUND, p.Status)
	assert.Nil(t, p.File)
	assert.Equal(t, content.Default().ErrorBody(404), p.Body)
}

func TestParseHead(t *testing.T) {
	// incomplete
	h, n, err := ParseHead([]byte("HTTP/1.0 200 OK\r\nContent-Length: 3\r\n"))
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Equal(t, 0, n)

	_, _, err = ParseHead([]byte("garbage\r\n\r\n"))
	require.ErrorIs(t, err, ErrMalformedStatusLine)

	_, _, err = ParseHead([]byte("HTTP/1.0 2x0 OK\r\n\r\n"))
	require.ErrorIs(t, err, ErrMalformedStatusLine)

	data := "HTTP/1.0 200 OK\r\nContent-Length: 3\r\n\r\nabc"
	h, n, err = ParseHead([]byte(data))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "abc", data[n:])

	h, body, err := ReadResponse(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, OK, h.Status)
	assert.Equal(t, "abc", string(body))

	_, _, err = ReadResponse(strings.NewReader("HTTP/1.0 200 OK\r\n"))
	require.ErrorIs(t, err, ErrIncompleteHead)
}
