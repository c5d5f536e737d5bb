package submit

import "sync/atomic"

// Stats is a lock-free counter set a submitter updates from any number of
// concurrent callers; §5 requires submission bookkeeping not itself become
// a contention point on the hot path.
type Stats struct {
	accepted  atomic.Uint64
	rejected  atomic.Uint64
	errored   atomic.Uint64
	lastError atomic.Value // string
}

func (s *Stats) recordAccepted()    { s.accepted.Add(1) }
func (s *Stats) recordRejected()    { s.rejected.Add(1) }
func (s *Stats) recordError(err error) {
	s.errored.Add(1)
	if err != nil {
		s.lastError.Store(err.Error())
	}
}

// Snapshot is a point-in-time read of Stats.
type Snapshot struct {
	Accepted  uint64
	Rejected  uint64
	Errors    uint64
	LastError string
}

func (s *Stats) Snapshot() Snapshot {
	last, _ := s.lastError.Load().(string)
	return Snapshot{
		Accepted:  s.accepted.Load(),
		Rejected:  s.rejected.Load(),
		Errors:    s.errored.Load(),
		LastError: last,
	}
}
