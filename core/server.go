package core

import (
	"crypto/tls"
	"net"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/searchktools/duplex-server/core/middleware"
	"github.com/searchktools/duplex-server/core/static"
)

// Mode selects the listener topology.
type Mode string

const (
	// ModePerformance serves HTTP on port across several workers and
	// WebSocket upgrades on a dedicated second port.
	ModePerformance Mode = "performance"

	// ModeCompatibility collapses HTTP and WebSocket onto one listener.
	ModeCompatibility Mode = "compatibility"
)

// Options configures a Server.
type Options struct {
	Host   string
	Port   int
	WSPort int

	CertificateChain string
	PrivateKey       string
	Password         string

	Mode           Mode
	WSOnMainThread bool

	MaxConnections int

	StaticRoot       string
	DirectoryListing bool
	FollowSymlinks   bool
	JailToRoot       bool
}

// Server registers routes and middlewares and runs the listeners. Workers
// share nothing at runtime; the server only shares the registration-time
// route definitions with them.
type Server struct {
	opts        Options
	logger      *zap.Logger
	defs        []routeDef
	middlewares []middleware.Handler
	hasWSRoutes bool

	mu        sync.Mutex
	listeners []net.Listener
	workers   []*worker
	httpAddr  net.Addr
	wsAddr    net.Addr
	ready     chan struct{}
	closed    bool
}

// NewServer creates a server. A nil logger disables logging.
func NewServer(opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Host == "" {
		opts.Host = "0.0.0.0"
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.Mode == "" {
		opts.Mode = ModePerformance
	}
	return &Server{
		opts:   opts,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Use appends a middleware; middlewares run in registration order on every
// worker.
func (s *Server) Use(m middleware.Handler) {
	s.middlewares = append(s.middlewares, m)
}

// Handle registers a route for an explicit method.
func (s *Server) Handle(method Method, pattern string, fn HTTPHandler) {
	s.defs = append(s.defs, routeDef{method: method, pattern: pattern, httpFn: fn})
}

// Get registers a GET route
func (s *Server) Get(pattern string, fn HTTPHandler) { s.Handle(MethodGet, pattern, fn) }

// Post registers a POST route
func (s *Server) Post(pattern string, fn HTTPHandler) { s.Handle(MethodPost, pattern, fn) }

// Put registers a PUT route
func (s *Server) Put(pattern string, fn HTTPHandler) { s.Handle(MethodPut, pattern, fn) }

// Delete registers a DELETE route
func (s *Server) Delete(pattern string, fn HTTPHandler) { s.Handle(MethodDelete, pattern, fn) }

// Patch registers a PATCH route
func (s *Server) Patch(pattern string, fn HTTPHandler) { s.Handle(MethodPatch, pattern, fn) }

// Options registers an OPTIONS route
func (s *Server) Options(pattern string, fn HTTPHandler) { s.Handle(MethodOptions, pattern, fn) }

// Head registers a HEAD route
func (s *Server) Head(pattern string, fn HTTPHandler) { s.Handle(MethodHead, pattern, fn) }

// WS registers a WebSocket route.
func (s *Server) WS(pattern string, fn WSHandler) {
	s.defs = append(s.defs, routeDef{method: MethodWS, pattern: pattern, wsFn: fn})
	s.hasWSRoutes = true
}

// Listen validates the configuration, binds the listeners, spawns the
// workers, and serves on the calling goroutine until Shutdown. Validation
// and bind errors return before anything starts.
func (s *Server) Listen() error {
	if s.opts.Mode == ModePerformance {
		if s.opts.WSPort != 0 && s.opts.WSPort == s.opts.Port {
			return ErrSamePort
		}
		if s.hasWSRoutes && s.opts.WSPort == 0 {
			return ErrWSPortRequired
		}
	}

	var tlsConfig *tls.Config
	if s.opts.PrivateKey != "" {
		var err error
		tlsConfig, err = loadTLSConfig(s.opts.CertificateChain, s.opts.PrivateKey, s.opts.Password)
		if err != nil {
			return err
		}
	}

	if s.opts.Mode == ModeCompatibility {
		return s.listenCompatibility(tlsConfig)
	}
	return s.listenPerformance(tlsConfig)
}

// listenCompatibility runs a single listener serving both HTTP and WS.
func (s *Server) listenCompatibility(tlsConfig *tls.Config) error {
	ln, err := listen(s.opts.Host, s.opts.Port, tlsConfig, s.opts.MaxConnections)
	if err != nil {
		return err
	}

	w := newWorker(0, s.defs, s.middlewares, s.staticHandler(), true, false, s.logger)

	s.mu.Lock()
	s.listeners = append(s.listeners, ln)
	s.workers = append(s.workers, w)
	s.httpAddr = ln.Addr()
	s.wsAddr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("listening",
		zap.String("mode", string(ModeCompatibility)),
		zap.String("addr", ln.Addr().String()))

	close(s.ready)
	w.serve(ln)
	return nil
}

// listenPerformance spawns T = numCPU/2 regular workers (T-1 when WS routes
// exist) on a shared HTTP socket, runs one more regular worker beside them,
// and, when WS routes exist, one WS-only worker on the WS port. The extra
// regular worker runs on the calling goroutine, unless WSOnMainThread puts
// the WS worker there instead.
func (s *Server) listenPerformance(tlsConfig *tls.Config) error {
	workerCount := runtime.NumCPU() / 2
	if workerCount < 1 {
		workerCount = 1
	}
	spawned := workerCount
	if s.hasWSRoutes {
		// One worker is reserved for the WS listener.
		spawned = workerCount - 1
	}
	// One more regular listener always runs beside the spawned ones.
	totalRegular := spawned + 1

	staticHandler := s.staticHandler()

	// Bind the first HTTP listener up front: with port 0 it resolves the
	// real port the remaining shared-socket listeners must reuse.
	first, err := listen(s.opts.Host, s.opts.Port, tlsConfig, s.opts.MaxConnections)
	if err != nil {
		return err
	}
	httpPort := first.Addr().(*net.TCPAddr).Port

	httpListeners := []net.Listener{first}
	for i := 1; i < totalRegular; i++ {
		ln, err := listen(s.opts.Host, httpPort, tlsConfig, s.opts.MaxConnections)
		if err != nil {
			s.closeListeners(httpListeners)
			return err
		}
		httpListeners = append(httpListeners, ln)
	}

	var wsListener net.Listener
	if s.hasWSRoutes {
		wsListener, err = listen(s.opts.Host, s.opts.WSPort, tlsConfig, s.opts.MaxConnections)
		if err != nil {
			s.closeListeners(httpListeners)
			return err
		}
	}

	s.mu.Lock()
	s.listeners = append(s.listeners, httpListeners...)
	if wsListener != nil {
		s.listeners = append(s.listeners, wsListener)
	}
	s.httpAddr = first.Addr()
	if wsListener != nil {
		s.wsAddr = wsListener.Addr()
	}
	s.mu.Unlock()

	// Spawned regular workers; the inline worker below serves the first
	// listener.
	for i := 1; i < len(httpListeners); i++ {
		w := newWorker(i, s.defs, s.middlewares, staticHandler, false, false, s.logger)
		s.trackWorker(w)
		ln := httpListeners[i]
		go w.serve(ln)
	}

	var wsWorker *worker
	if wsListener != nil {
		wsWorker = newWorker(len(httpListeners), s.defs, s.middlewares, nil, true, true, s.logger)
		s.trackWorker(wsWorker)
	}

	inline := newWorker(0, s.defs, s.middlewares, staticHandler, false, false, s.logger)
	s.trackWorker(inline)

	s.logger.Info("listening",
		zap.String("mode", string(ModePerformance)),
		zap.String("addr", first.Addr().String()),
		zap.Int("workers", len(httpListeners)),
		zap.Bool("websocket", wsListener != nil))

	close(s.ready)

	if wsWorker != nil && s.opts.WSOnMainThread {
		go inline.serve(first)
		wsWorker.serve(wsListener)
		return nil
	}
	if wsWorker != nil {
		go wsWorker.serve(wsListener)
	}
	inline.serve(first)
	return nil
}

// Ready is closed once every listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound HTTP address, nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpAddr
}

// WSAddr returns the bound WebSocket address; in compatibility mode it
// equals Addr.
func (s *Server) WSAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wsAddr
}

// Shutdown closes every listener and disposes every live socket. Listen
// returns once its worker's accept loop observes the close.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	listeners := s.listeners
	workers := s.workers
	s.mu.Unlock()

	for _, ln := range listeners {
		ln.Close()
	}
	for _, w := range workers {
		w.closeManagers()
	}
	s.logger.Info("server stopped")
}

func (s *Server) staticHandler() *static.Handler {
	if s.opts.StaticRoot == "" {
		return nil
	}
	return &static.Handler{
		Root:             s.opts.StaticRoot,
		DirectoryListing: s.opts.DirectoryListing,
		FollowSymlinks:   s.opts.FollowSymlinks,
		JailToRoot:       s.opts.JailToRoot,
	}
}

func (s *Server) trackWorker(w *worker) {
	s.mu.Lock()
	s.workers = append(s.workers, w)
	s.mu.Unlock()
}

func (s *Server) closeListeners(listeners []net.Listener) {
	for _, ln := range listeners {
		ln.Close()
	}
}
