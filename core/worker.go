package core

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/searchktools/duplex-server/core/http"
	"github.com/searchktools/duplex-server/core/middleware"
	"github.com/searchktools/duplex-server/core/router"
	"github.com/searchktools/duplex-server/core/static"
)

// worker is one serving context. Workers share nothing: each builds its own
// route tree and its own handler instances (and so its own socket managers)
// from the registered route definitions, and runs its own accept loop on
// its own shared-socket listener.
type worker struct {
	id       int
	tree     *router.Tree[*RouteHandler]
	handlers []*RouteHandler
	chain    *middleware.Chain
	static   *static.Handler
	wsRole   bool
	wsOnly   bool
	logger   *zap.Logger
}

func newWorker(
	id int,
	defs []routeDef,
	middlewares []middleware.Handler,
	staticHandler *static.Handler,
	wsRole, wsOnly bool,
	logger *zap.Logger,
) *worker {
	chain := middleware.NewChain()
	for _, m := range middlewares {
		chain.Use(m)
	}

	tree := router.NewTree[*RouteHandler]()
	handlers := make([]*RouteHandler, 0, len(defs))
	for _, def := range defs {
		h := newRouteHandler(def, logger)
		handlers = append(handlers, h)
		tree.Add(def.pattern, h)
	}

	return &worker{
		id:       id,
		tree:     tree,
		handlers: handlers,
		chain:    chain,
		static:   staticHandler,
		wsRole:   wsRole,
		wsOnly:   wsOnly,
		logger:   logger,
	}
}

// serve accepts connections until the listener closes.
func (w *worker) serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			w.logger.Warn("accept failed", zap.Int("worker", w.id), zap.Error(err))
			continue
		}
		go w.handleConn(conn)
	}
}

// handleConn reads requests off one connection until it closes, is
// upgraded, or asks not to be kept alive.
func (w *worker) handleConn(conn net.Conn) {
	closeConn := true
	defer func() {
		if closeConn {
			conn.Close()
		}
	}()

	br := bufio.NewReader(conn)

	for {
		req, err := http.ReadRequest(br)
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				w.sendError(conn, 400, "Bad Request")
			}
			return
		}

		keepAlive, upgraded := w.handleRequest(conn, br, req)
		if upgraded {
			// The socket owns the connection now and has already closed it.
			closeConn = false
			return
		}
		if !keepAlive {
			return
		}

		http.ReleaseRequest(req)
	}
}

// handleRequest dispatches one request and reports whether the connection
// should serve another and whether it was consumed by an upgrade.
func (w *worker) handleRequest(conn net.Conn, br *bufio.Reader, req *http.Request) (keepAlive, upgraded bool) {
	handler, match, ok := w.tree.Lookup(req.Path)
	if !ok {
		w.handleMiss(conn, req)
		return w.keepAlive(req), false
	}

	if handler.Dispatch(conn, br, req, match.Params, w.chain, w.wsRole, w.wsOnly) {
		return false, true
	}
	return w.keepAlive(req), false
}

// handleMiss falls through to the static handler when one is configured,
// else answers 404; the WS-only worker always answers 400.
func (w *worker) handleMiss(conn net.Conn, req *http.Request) {
	res := http.NewResponseCtx(conn, nil)

	if w.static != nil && !w.wsOnly {
		reqCtx := http.NewRequestCtx(req, nil)
		w.static.Serve(reqCtx, res)
		return
	}

	if w.wsOnly {
		res.SetStatus(400)
		res.SendString("Bad Request")
		return
	}
	res.NotFound()
}

func (w *worker) keepAlive(req *http.Request) bool {
	if req.Proto == "HTTP/1.0" {
		return false
	}
	return !strings.EqualFold(req.Connection, "close")
}

func (w *worker) sendError(conn net.Conn, code int, message string) {
	res := http.NewResponseCtx(conn, nil)
	res.SetStatus(code)
	res.SendString(message)
}

// closeManagers disposes every socket of every handler, for shutdown.
func (w *worker) closeManagers() {
	for _, handler := range w.handlers {
		handler.Sockets().Close()
	}
}
