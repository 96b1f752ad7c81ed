//go:build !linux

package server

import (
	"errors"
	"net"

	"httpstatic/internal/content"
)

var errUnsupported = errors.New("server: epoll reactor requires linux")

// Server is only implemented on linux.
type Server struct {
	Port int
}

func New(root string, port int, table *content.Table, opts ...Option) (*Server, error) {
	return nil, errUnsupported
}

func (s *Server) Addr() *net.TCPAddr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: s.Port} }

func (s *Server) Run() error { return errUnsupported }

func (s *Server) Close() error { return nil }
