package core

import (
	"bufio"
	"net"

	"go.uber.org/zap"

	"github.com/searchktools/duplex-server/core/http"
	"github.com/searchktools/duplex-server/core/middleware"
	"github.com/searchktools/duplex-server/core/websocket"
)

// Method is an HTTP method, or the pseudo-method WS for WebSocket routes.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodOptions Method = "OPTIONS"
	MethodHead    Method = "HEAD"
	MethodConnect Method = "CONNECT"
	MethodTrace   Method = "TRACE"
	MethodWS      Method = "WS"
)

// HTTPHandler handles a plain HTTP request.
type HTTPHandler func(req *http.RequestCtx, res *http.ResponseCtx)

// WSHandler receives an upgraded, registered socket.
type WSHandler func(s *websocket.Socket)

// routeDef is the registration-time record a worker builds its own
// RouteHandler instances from.
type routeDef struct {
	method  Method
	pattern string
	httpFn  HTTPHandler
	wsFn    WSHandler
}

// RouteHandler binds a method and an HTTP or WS callback at one route.
// Each worker owns its own instances; a WS-bound handler also owns its own
// socket manager, so rooms at different routes (and different workers) are
// disjoint.
type RouteHandler struct {
	method  Method
	httpFn  HTTPHandler
	wsFn    WSHandler
	sockets *websocket.Manager
	logger  *zap.Logger
}

func newRouteHandler(def routeDef, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		method:  def.method,
		httpFn:  def.httpFn,
		wsFn:    def.wsFn,
		sockets: websocket.NewManager(logger),
		logger:  logger,
	}
}

// Sockets exposes the handler's socket manager.
func (h *RouteHandler) Sockets() *websocket.Manager {
	return h.sockets
}

// Dispatch runs a matched request through the middleware chain and then the
// bound callback. The effective method is WS when the Connection header
// asks for an upgrade, otherwise the parsed HTTP method; a mismatch with
// the binding answers 404. It returns true when the connection was upgraded
// and consumed, so the caller must not reuse it.
func (h *RouteHandler) Dispatch(
	conn net.Conn,
	br *bufio.Reader,
	req *http.Request,
	params map[string]string,
	chain *middleware.Chain,
	wsRole bool,
	wsOnly bool,
) (upgraded bool) {
	reqCtx := http.NewRequestCtx(req, params)
	resCtx := http.NewResponseCtx(conn, nil)

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("handler panic", zap.Any("panic", r),
				zap.String("path", req.Path))
			if !resCtx.Closed() {
				resCtx.Error(500, "Internal Server Error")
			}
		}
	}()

	if !chain.Run(reqCtx, resCtx) {
		return false
	}

	effective := Method(req.Method)
	if reqCtx.IsUpgrade() {
		effective = MethodWS
	}

	if wsOnly && effective != MethodWS {
		resCtx.SetStatus(400)
		resCtx.SendString("Bad Request")
		return false
	}

	if h.method != effective {
		resCtx.NotFound()
		return false
	}

	if effective == MethodWS {
		if !wsRole {
			// This worker serves only plain HTTP; upgrades belong to the
			// WebSocket listener.
			resCtx.NotFound()
			return false
		}
		return h.upgrade(conn, br, req, resCtx)
	}

	h.httpFn(reqCtx, resCtx)
	return false
}

func (h *RouteHandler) upgrade(
	conn net.Conn,
	br *bufio.Reader,
	req *http.Request,
	resCtx *http.ResponseCtx,
) bool {
	wsConn, err := websocket.Upgrade(conn, br, req)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		resCtx.SetStatus(400)
		resCtx.SendString("Bad Request")
		return false
	}

	socket := websocket.NewSocket(wsConn, h.sockets)
	h.wsFn(socket)

	// Blocks for the life of the session; messages reach the socket's
	// callbacks in transport order.
	socket.Listen()
	return true
}
