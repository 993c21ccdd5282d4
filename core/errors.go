package core

import "errors"

// Bind-time configuration errors, surfaced synchronously from Listen.
var (
	// ErrSamePort is returned in performance mode when the WebSocket port
	// equals the HTTP port.
	ErrSamePort = errors.New("core: websocket port must differ from the http port in performance mode")

	// ErrWSPortRequired is returned in performance mode when WebSocket
	// routes are registered but no WebSocket port is configured.
	ErrWSPortRequired = errors.New("core: registered websocket routes require a websocket port in performance mode")
)
