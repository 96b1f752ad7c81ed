//go:build linux

package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"httpstatic/internal/content"
	"httpstatic/internal/response"
)

const (
	listenBacklog = 1024
	maxEvents     = 128
)

// Server is a single-threaded epoll reactor. Every connection is driven
// through accept, read, classify, write and close by the goroutine that
// calls Run; nothing else touches connection state.
type Server struct {
	Port int

	table      *content.Table
	classifier *response.Classifier
	log        Logger
	now        func() time.Time

	lfd    int // listening socket
	epfd   int
	wakefd int // eventfd, written by Close to interrupt EpollWait

	conns map[int]*conn

	mu      sync.Mutex
	running bool
	closed  bool
	done    chan struct{}
}

// New binds 127.0.0.1:port and prepares the event loop. Port 0 picks a free
// port, readable from Port afterwards. Serving starts with Run.
func New(root string, port int, table *content.Table, opts ...Option) (*Server, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	classifier := response.NewClassifier(root, table)
	classifier.Prober = o.prober
	classifier.Now = o.now

	s := &Server{
		table:      table,
		classifier: classifier,
		log:        o.logger,
		now:        o.now,
		lfd:        -1,
		epfd:       -1,
		wakefd:     -1,
		conns:      make(map[int]*conn),
		done:       make(chan struct{}),
	}

	if err := s.setup(port); err != nil {
		s.closeFds()
		return nil, err
	}
	return s, nil
}

func (s *Server) setup(port int) error {
	var err error

	s.lfd, err = unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(s.lfd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	sa := &unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}}
	if err := unix.Bind(s.lfd, sa); err != nil {
		return fmt.Errorf("bind 127.0.0.1:%d: %w", port, err)
	}
	if err := unix.Listen(s.lfd, listenBacklog); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	bound, err := unix.Getsockname(s.lfd)
	if err != nil {
		return fmt.Errorf("getsockname: %w", err)
	}
	if in4, ok := bound.(*unix.SockaddrInet4); ok {
		s.Port = in4.Port
	}

	s.epfd, err = unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	s.wakefd, err = unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("eventfd: %w", err)
	}

	if err := s.register(s.lfd, unix.EPOLLIN); err != nil {
		return fmt.Errorf("epoll_ctl ADD listen: %w", err)
	}
	if err := s.register(s.wakefd, unix.EPOLLIN); err != nil {
		return fmt.Errorf("epoll_ctl ADD eventfd: %w", err)
	}
	return nil
}

// Addr is the loopback address the server is bound to.
func (s *Server) Addr() *net.TCPAddr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: s.Port}
}

// Run blocks, serving connections until Close is called or the readiness
// wait fails. It returns ErrServerClosed after Close.
func (s *Server) Run() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.closed = true
		s.shutdown()
		s.mu.Unlock()
		close(s.done)
	}()

	s.log.Printf("listening on %s", s.Addr())

	events := make([]unix.EpollEvent, maxEvents)
	for {
		n, err := unix.EpollWait(s.epfd, events, -1)
		if err != nil {
			// Epoll can be interrupted by signals
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Fd)

			switch fd {
			case s.wakefd:
				return ErrServerClosed
			case s.lfd:
				s.accept()
			default:
				c, ok := s.conns[fd]
				if !ok {
					continue
				}
				s.serve(c, ev.Events)
			}
		}
	}
}

// Close stops the server. If Run is active, Close wakes it and waits for it
// to close every connection; otherwise it releases the sockets itself.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	if !s.running {
		s.shutdown()
		s.mu.Unlock()
		return nil
	}

	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	_, err := unix.Write(s.wakefd, one[:])
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("wake event loop: %w", err)
	}

	<-s.done
	return nil
}

func (s *Server) shutdown() {
	for _, c := range s.conns {
		s.closeConn(c)
	}
	s.closeFds()
	s.log.Printf("server stopped")
}

func (s *Server) closeFds() {
	for _, fd := range []*int{&s.lfd, &s.wakefd, &s.epfd} {
		if *fd >= 0 {
			_ = unix.Close(*fd)
			*fd = -1
		}
	}
}

func (s *Server) register(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (s *Server) rearm(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

// accept takes one pending connection per readiness event; the listening
// socket is level-triggered, so any backlog is reported again.
func (s *Server) accept() {
	fd, sa, err := unix.Accept4(s.lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ECONNABORTED) {
			return
		}
		s.log.Printf("accept error: %v", err)
		return
	}

	c := newConn(fd, peerHost(sa), s.now())
	if err := s.register(fd, unix.EPOLLIN|unix.EPOLLRDHUP); err != nil {
		s.log.Printf("%s\tepoll_ctl ADD: %v", c.remote, err)
		_ = unix.Close(fd)
		return
	}
	s.conns[fd] = c
	s.log.Printf("%s\taccepted", c.remote)
}

func peerHost(sa unix.Sockaddr) string {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IP(v.Addr[:]).String()
	case *unix.SockaddrInet6:
		return net.IP(v.Addr[:]).String()
	default:
		return "?"
	}
}
