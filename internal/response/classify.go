package response

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"httpstatic/internal/content"
	"httpstatic/internal/docroot"
	"httpstatic/internal/request"
)

// Decision is the outcome for one request. It is computed once, before the
// connection is writable, and never re-evaluated.
type Decision struct {
	Status    StatusCode
	Extension string
	Path      string // resolved file, set only for OK
	Size      int64  // file size at decision time, set only for OK
	Time      time.Time
}

// Prober answers the two filesystem questions a decision depends on.
type Prober interface {
	// RegularFile reports whether path is an existing regular file and its size.
	RegularFile(path string) (size int64, ok bool)
	Readable(path string) bool
}

// OSProber probes the real filesystem.
type OSProber struct{}

func (OSProber) RegularFile(path string) (int64, bool) {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return 0, false
	}
	return fi.Size(), true
}

// Readable checks access(2) with R_OK against the process credentials.
func (OSProber) Readable(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}

// Decide applies the fixed priority: malformed, then missing, then
// unreadable. The first failing check wins.
func Decide(wellFormed, exists, readable bool) StatusCode {
	switch {
	case !wellFormed:
		return BAD_REQUEST
	case !exists:
		return NOT_FOUND
	case !readable:
		return FORBIDDEN
	default:
		return OK
	}
}

// Classifier turns parsed requests into decisions against one document root.
type Classifier struct {
	Root   string
	Table  *content.Table
	Prober Prober
	Now    func() time.Time
}

func NewClassifier(root string, table *content.Table) *Classifier {
	return &Classifier{
		Root:   root,
		Table:  table,
		Prober: OSProber{},
		Now:    time.Now,
	}
}

// Classify resolves req against the document root and probes the result.
// Filesystem probes are skipped once an earlier check has already failed.
// A path that escapes the root is treated as missing.
func (c *Classifier) Classify(req *request.Request) Decision {
	d := Decision{
		Extension: req.Extension,
		Time:      c.Now(),
	}

	wellFormed := req.WellFormed(c.Table.Supported)
	if !wellFormed {
		d.Status = Decide(false, false, false)
		return d
	}

	path := docroot.Resolve(c.Root, req.Target)
	size, exists := int64(0), false
	if docroot.Contains(c.Root, path) {
		size, exists = c.Prober.RegularFile(path)
	}

	readable := exists && c.Prober.Readable(path)
	d.Status = Decide(true, exists, readable)
	if d.Status == OK {
		d.Path = path
		d.Size = size
	}
	return d
}
