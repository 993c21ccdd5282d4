package websocket

import "errors"

var (
	// ErrClosedSocket is returned by every Socket operation, and by event
	// registration, after the socket has been disposed.
	ErrClosedSocket = errors.New("websocket: cannot add events to closed socket")

	// ErrSocketNotFound names a socket that is not registered. Manager.ByID
	// does not return it; it reports a miss through its boolean result.
	ErrSocketNotFound = errors.New("websocket: socket not found")
)
