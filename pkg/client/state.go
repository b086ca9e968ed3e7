package client

import "sync/atomic"

// State is the connection lifecycle state of a Client.
type State int32

const (
	// Unstarted means Connect has never been called.
	Unstarted State = iota
	// Starting means the subprocess is launching and the handshake is in flight.
	Starting
	// Ready means the handshake completed and calls are allowed.
	Ready
	// Degraded means a pump stopped while the process is still believed alive.
	Degraded
	// Disconnected means the connection was torn down or never established.
	Disconnected
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

type stateVar struct {
	v atomic.Int32
}

func (s *stateVar) Load() State {
	return State(s.v.Load())
}

func (s *stateVar) Store(next State) {
	s.v.Store(int32(next))
}

// CompareAndSwap transitions from old to next atomically.
func (s *stateVar) CompareAndSwap(old, next State) bool {
	return s.v.CompareAndSwap(int32(old), int32(next))
}
