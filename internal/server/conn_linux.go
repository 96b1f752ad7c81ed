//go:build linux

package server

import (
	"bytes"
	"errors"
	"io"
	"time"

	"golang.org/x/sys/unix"

	"httpstatic/internal/request"
	"httpstatic/internal/response"
)

const (
	readChunk = 2048
	// upper bound for a single sendfile call
	maxSendfile = 1 << 30
)

// conn is everything one accepted socket owns. Nothing in it is shared with
// other connections.
type conn struct {
	fd     int
	remote string
	start  time.Time
	state  ConnState

	buf   []byte
	chunk [readChunk]byte

	req      *request.Request
	decision response.Decision
	plan     *response.Plan // built on the first writable event

	headerOff int   // header bytes flushed
	bodyOff   int   // canned body bytes flushed
	fileOff   int64 // file bytes sent
}

func newConn(fd int, remote string, now time.Time) *conn {
	return &conn{
		fd:     fd,
		remote: remote,
		start:  now,
		state:  StateAccepted,
	}
}

// serve dispatches one readiness event for c.
func (s *Server) serve(c *conn, events uint32) {
	if events&unix.EPOLLERR != 0 {
		s.fail(c, "socket", socketError(c.fd))
		return
	}

	switch c.state {
	case StateAccepted, StateReading:
		if events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP) != 0 {
			s.read(c)
		}
	case StateWriting:
		if events&(unix.EPOLLOUT|unix.EPOLLHUP) != 0 {
			s.write(c)
		}
	}
}

func socketError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno == 0 {
		return io.ErrUnexpectedEOF
	}
	return unix.Errno(errno)
}

// read drains what the socket has until the request line is complete.
// A peer that closes after sending a partial line gets that partial line
// parsed; one that closes without sending anything is dropped silently.
func (s *Server) read(c *conn) {
	c.state = StateReading

	for {
		n, err := unix.Read(c.fd, c.chunk[:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EAGAIN) {
				return
			}
			s.fail(c, "read", err)
			return
		}

		if n == 0 {
			if len(bytes.TrimSpace(c.buf)) == 0 {
				s.log.Printf("%s\tclosed before sending a request", c.remote)
				s.closeConn(c)
				return
			}
			s.ready(c, request.Parse(string(c.buf)))
			return
		}

		c.buf = append(c.buf, c.chunk[:n]...)

		req, _, err := request.ParseRequestLine(c.buf)
		if err != nil {
			s.log.Printf("%s\t%v", c.remote, err)
			s.ready(c, request.Invalid())
			return
		}
		if req != nil {
			s.ready(c, req)
			return
		}
	}
}

// ready classifies the request and switches the socket to write readiness.
func (s *Server) ready(c *conn, req *request.Request) {
	c.req = req
	c.buf = nil
	c.decision = s.classifier.Classify(req)
	c.state = StateReady
	s.log.Printf("%s\trequest\t%s", c.remote, req)

	if err := s.rearm(c.fd, unix.EPOLLOUT); err != nil {
		s.fail(c, "epoll_ctl MOD", err)
		return
	}
	c.state = StateWriting
}

// write flushes the header, then the body. A full socket buffer leaves the
// progress in c and returns; the next writable event resumes from there.
func (s *Server) write(c *conn) {
	if c.plan == nil {
		c.plan = response.Render(c.decision, s.table, s.now())
	}
	p := c.plan

	for c.headerOff < len(p.Header) {
		n, err := unix.Write(c.fd, p.Header[c.headerOff:])
		if err != nil {
			if retry(err) {
				return
			}
			s.fail(c, "write header", err)
			return
		}
		c.headerOff += n
	}

	for c.bodyOff < len(p.Body) {
		n, err := unix.Write(c.fd, p.Body[c.bodyOff:])
		if err != nil {
			if retry(err) {
				return
			}
			s.fail(c, "write body", err)
			return
		}
		c.bodyOff += n
	}

	if p.File != nil {
		infd := int(p.File.Fd())
		for c.fileOff < p.ContentLength {
			count := int(min(p.ContentLength-c.fileOff, maxSendfile))
			n, err := unix.Sendfile(c.fd, infd, &c.fileOff, count)
			if err != nil {
				if retry(err) {
					return
				}
				s.fail(c, "sendfile", err)
				return
			}
			if n == 0 {
				// file shrank below the advertised Content-Length
				s.fail(c, "sendfile", io.ErrUnexpectedEOF)
				return
			}
		}
	}

	s.log.Printf("%s\t%s\t%s\t%d\t%s",
		c.remote, c.req.Method, "/"+c.req.Target, int(p.Status), fmtDur(s.now().Sub(c.start)),
	)
	s.drain(c)
	s.closeConn(c)
}

// drain discards request bytes still queued after the request line, so that
// closing the socket does not turn into a reset that eats the response.
func (s *Server) drain(c *conn) {
	for i := 0; i < 4; i++ {
		n, err := unix.Read(c.fd, c.chunk[:])
		if err != nil || n <= 0 {
			return
		}
	}
}

// retry reports whether a write should wait for the next writable event.
// EINTR is folded in since the socket stays registered for EPOLLOUT.
func retry(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)
}

// fail logs a transport error and tears down only this connection.
func (s *Server) fail(c *conn, op string, err error) {
	method, target, status := "-", "-", 0
	if c.req != nil {
		method, target = c.req.Method, "/"+c.req.Target
		status = int(c.decision.Status)
	}
	s.log.Printf("%s\t%s\t%s\t%d\t%s\terr=%q",
		c.remote, method, target, status, fmtDur(s.now().Sub(c.start)), op+": "+err.Error(),
	)
	s.closeConn(c)
}

func (s *Server) closeConn(c *conn) {
	if c.state == StateClosed {
		return
	}
	_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, c.fd, nil)
	_ = unix.Close(c.fd)
	if c.plan != nil {
		_ = c.plan.Close()
	}
	c.state = StateClosed
	delete(s.conns, c.fd)
}
