package content

import "strings"

// HTML is the content type of every error page and of successful html responses.
const HTML = "text/html; charset=utf-8"

// fallback is never reached for supported extensions.
const fallback = "application/octet-stream"

type Set map[string]struct{}

func (s Set) Has(ext string) bool {
	_, ok := s[strings.ToLower(ext)]
	return ok
}

// Table is the static lookup data handed to the response writer.
// Build it once with Default and share it by pointer; it is never mutated.
type Table struct {
	Supported Set
	types     map[string]string
	bodies    map[int][]byte
}

var (
	body400 = []byte("<html><body>400 Bad Request</body></html>")
	body403 = []byte("<html><body>403 Forbidden</body></html>")
	body404 = []byte("<html><body>404 Not Found</body></html>")
)

func Default() *Table {
	return &Table{
		Supported: Set{
			"html": {}, "gif": {}, "txt": {}, "jpg": {}, "jpeg": {},
		},
		types: map[string]string{
			"html": HTML,
			"gif":  "image/gif",
			"jpg":  "image/jpeg",
			"jpeg": "image/jpeg",
			"txt":  "text/plain",
		},
		bodies: map[int][]byte{
			400: body400,
			403: body403,
			404: body404,
		},
	}
}

// Type returns the content type for a successful response with extension ext.
func (t *Table) Type(ext string) string {
	if ct, ok := t.types[strings.ToLower(ext)]; ok {
		return ct
	}
	return fallback
}

// ErrorBody returns the canned page for code, or nil when none exists.
// The returned slice is shared; callers must not modify it.
func (t *Table) ErrorBody(code int) []byte {
	return t.bodies[code]
}
