package response

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"httpstatic/internal/content"
	"httpstatic/internal/headers"
)

// DateLayout is the Date header format: local date and time, not RFC 1123.
const DateLayout = "2006-01-02 15:04:05.000"

// Plan is a rendered response: the header block plus where the body comes
// from. Exactly one of Body and File is set.
type Plan struct {
	Status        StatusCode
	Header        []byte
	ContentLength int64
	Body          []byte   // canned error page
	File          *os.File // file to transfer on OK, owned by the plan
}

// Render builds the plan for d. For OK it opens the decided file; if that
// fails the plan falls back to the matching error page, so a client always
// gets a complete response.
func Render(d Decision, table *content.Table, now time.Time) *Plan {
	if d.Status == OK {
		f, err := os.Open(d.Path)
		if err == nil {
			return renderFile(d, f, table, now)
		}
		if errors.Is(err, fs.ErrNotExist) {
			d.Status = NOT_FOUND
		} else {
			d.Status = FORBIDDEN
		}
	}
	return renderError(d.Status, table, now)
}

func renderFile(d Decision, f *os.File, table *content.Table, now time.Time) *Plan {
	// html is always sent as utf-8 html; the table only covers the rest
	ctype := content.HTML
	if d.Extension != "html" {
		ctype = table.Type(d.Extension)
	}
	return &Plan{
		Status:        OK,
		Header:        renderHead(OK, d.Size, ctype, now),
		ContentLength: d.Size,
		File:          f,
	}
}

func renderError(status StatusCode, table *content.Table, now time.Time) *Plan {
	body := table.ErrorBody(int(status))
	return &Plan{
		Status:        status,
		Header:        renderHead(status, int64(len(body)), content.HTML, now),
		ContentLength: int64(len(body)),
		Body:          body,
	}
}

// renderHead writes the status line and the three headers in wire order:
// Content-Length, Content-Type, Date.
func renderHead(status StatusCode, length int64, ctype string, now time.Time) []byte {
	b := make([]byte, 0, 128)
	b = append(b, httpVersion...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(status), 10)
	b = append(b, ' ')
	b = append(b, status.Reason()...)
	b = append(b, headers.CRLF...)

	var fields headers.Fields
	fields = fields.
		Add("Content-Length", strconv.FormatInt(length, 10)).
		Add("Content-Type", ctype).
		Add("Date", now.Format(DateLayout))
	return fields.AppendTo(b)
}

// Close releases the file, if any. Safe to call more than once.
func (p *Plan) Close() error {
	if p.File == nil {
		return nil
	}
	err := p.File.Close()
	p.File = nil
	return err
}
