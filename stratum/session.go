package stratum

import (
	"bufio"
	"net"
	"sync"

	"github.com/google/uuid"
)

// SessionState is the one-way state machine a session walks through.
// Malformed frames produce an error response but never move the state
// backward (§4.10).
type SessionState int

const (
	StateConnected SessionState = iota
	StateSubscribed
	StateAuthorized
	StateReceivingJobs
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	case StateAuthorized:
		return "authorized"
	case StateReceivingJobs:
		return "receiving_jobs"
	default:
		return "unknown"
	}
}

// Session is one connected miner's framing, identity, and state.
type Session struct {
	ID      string
	Dialect Dialect
	State   SessionState
	Worker  string

	conn   net.Conn
	writer *bufio.Writer
	framed bool // length-prefixed framing negotiated, vs line-delimited default

	mu sync.Mutex // guards writes: one frame at a time per connection
}

func newSession(conn net.Conn) *Session {
	return &Session{
		ID:     uuid.NewString(),
		State:  StateConnected,
		conn:   conn,
		writer: bufio.NewWriter(conn),
	}
}

// advance moves the session forward if next is a strictly later state;
// regressions are silently ignored (never move backward, §4.10).
func (s *Session) advance(next SessionState) {
	if next > s.State {
		s.State = next
	}
}
