package client

import "errors"

var (
	// ErrNotConnected is returned by calls attempted outside the
	// Ready/Degraded states. The transport is never touched.
	ErrNotConnected = errors.New("not connected")

	// ErrRequestTimeout is returned when no response arrived within the
	// call's bound. The pending entry is purged, so a late response for
	// the same id is dropped.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrTransport marks a pipe write or read failure. It triggers
	// connection teardown.
	ErrTransport = errors.New("transport failure")

	// ErrConnectionClosed resolves every still-pending call during
	// teardown so no caller blocks indefinitely.
	ErrConnectionClosed = errors.New("connection closed")
)
