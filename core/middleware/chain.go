package middleware

import (
	"github.com/searchktools/duplex-server/core/http"
)

// Handler is a request-stage function. Returning true passes the request to
// the next stage; returning false halts the chain, and the middleware that
// halted is responsible for having written a response.
type Handler func(req *http.RequestCtx, res *http.ResponseCtx) bool

// Chain is an ordered middleware list.
type Chain struct {
	handlers []Handler
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{
		handlers: make([]Handler, 0, 16),
	}
}

// Use appends a middleware to the chain.
func (c *Chain) Use(handler Handler) *Chain {
	c.handlers = append(c.handlers, handler)
	return c
}

// Handlers returns the registered middlewares in order.
func (c *Chain) Handlers() []Handler {
	return c.handlers
}

// Run executes the middlewares in registration order. It returns false as
// soon as one of them halts; the route handler must not run in that case.
func (c *Chain) Run(req *http.RequestCtx, res *http.ResponseCtx) bool {
	for _, handler := range c.handlers {
		if !handler(req, res) {
			return false
		}
	}
	return true
}
