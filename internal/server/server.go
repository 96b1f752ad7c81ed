package server

import (
	"errors"
	"fmt"
	"log"
	"time"

	"httpstatic/internal/response"
)

// Logger is the sink the server reports connection events to.
// *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

var ErrServerClosed = errors.New("server closed")

// ConnState is where a connection is in its single request/response cycle.
type ConnState int

const (
	StateAccepted ConnState = iota + 1 // registered for read readiness
	StateReading                       // accumulating the request line
	StateReady                         // decision made, switching to write readiness
	StateWriting                       // flushing header then body
	StateClosed
)

var ConnStateName = map[ConnState]string{
	StateAccepted: "accepted",
	StateReading:  "reading",
	StateReady:    "ready",
	StateWriting:  "writing",
	StateClosed:   "closed",
}

func (s ConnState) String() string {
	if name, ok := ConnStateName[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type options struct {
	logger Logger
	prober response.Prober
	now    func() time.Time
}

type Option func(*options)

func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithProber replaces the filesystem checks used to classify requests.
func WithProber(p response.Prober) Option {
	return func(o *options) { o.prober = p }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func defaultOptions() options {
	return options{
		logger: log.Default(),
		prober: response.OSProber{},
		now:    time.Now,
	}
}

// helper: format duration compactly
func fmtDur(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
