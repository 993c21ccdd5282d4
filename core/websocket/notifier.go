package websocket

import (
	"encoding/json"
	"sync"
)

// Notifier dispatches a single connection's events to registered callbacks:
// every message reaches the message callbacks unchanged, and messages that
// decode as a typed-event envelope additionally reach the handlers
// registered for that event type.
//
// On close or error all close/error callbacks fire once, every list is
// cleared, and the notifier is disposed; registration afterwards returns
// ErrClosedSocket.
type Notifier struct {
	mu sync.Mutex

	openFns    []func()
	messageFns []func(data []byte)
	closeFns   []func()
	errorFns   []func(err error)
	eventFns   map[string][]func(data json.RawMessage)

	disposed bool
}

// NewNotifier creates a notifier with no callbacks registered.
func NewNotifier() *Notifier {
	return &Notifier{
		eventFns: make(map[string][]func(data json.RawMessage)),
	}
}

// OnOpen registers a callback for the open event.
func (n *Notifier) OnOpen(fn func()) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return ErrClosedSocket
	}
	n.openFns = append(n.openFns, fn)
	return nil
}

// OnMessage registers a callback fired for every inbound message.
func (n *Notifier) OnMessage(fn func(data []byte)) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return ErrClosedSocket
	}
	n.messageFns = append(n.messageFns, fn)
	return nil
}

// OnClose registers a callback fired once when the connection ends.
func (n *Notifier) OnClose(fn func()) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return ErrClosedSocket
	}
	n.closeFns = append(n.closeFns, fn)
	return nil
}

// OnError registers a callback fired when the transport fails.
func (n *Notifier) OnError(fn func(err error)) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return ErrClosedSocket
	}
	n.errorFns = append(n.errorFns, fn)
	return nil
}

// On registers a callback for a named event type.
func (n *Notifier) On(event string, fn func(data json.RawMessage)) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return ErrClosedSocket
	}
	n.eventFns[event] = append(n.eventFns[event], fn)
	return nil
}

// DispatchOpen fires the open callbacks.
func (n *Notifier) DispatchOpen() {
	n.mu.Lock()
	fns := append([]func(){}, n.openFns...)
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// DispatchMessage delivers a message: first to every message callback with
// the raw bytes, then, when it decodes as a typed-event envelope, to the
// handlers for that event type. Envelope decode failures are swallowed.
func (n *Notifier) DispatchMessage(data []byte) {
	n.mu.Lock()
	messageFns := append([]func([]byte){}, n.messageFns...)
	n.mu.Unlock()

	for _, fn := range messageFns {
		fn(data)
	}

	event, ok := DecodeEvent(data)
	if !ok {
		return
	}

	n.mu.Lock()
	eventFns := append([]func(json.RawMessage){}, n.eventFns[event.Type]...)
	n.mu.Unlock()

	for _, fn := range eventFns {
		fn(event.Data)
	}
}

// DispatchClose ends the notifier: error callbacks fire first when err is
// non-nil, then close callbacks, then everything is cleared and further
// registrations fail. Safe to call more than once.
func (n *Notifier) DispatchClose(err error) {
	n.mu.Lock()
	if n.disposed {
		n.mu.Unlock()
		return
	}
	n.disposed = true
	errorFns := n.errorFns
	closeFns := n.closeFns
	n.openFns = nil
	n.messageFns = nil
	n.closeFns = nil
	n.errorFns = nil
	n.eventFns = make(map[string][]func(data json.RawMessage))
	n.mu.Unlock()

	if err != nil {
		for _, fn := range errorFns {
			fn(err)
		}
	}
	for _, fn := range closeFns {
		fn()
	}
}

// Disposed reports whether the notifier has been shut down.
func (n *Notifier) Disposed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.disposed
}
