package app

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/searchktools/duplex-server/config"
	"github.com/searchktools/duplex-server/core"
)

// App is the application instance: configuration, logger, and server wired
// together with signal-driven shutdown.
type App struct {
	cfg    *config.Config
	server *core.Server
	logger *zap.Logger
}

// New creates an application instance
func New(cfg *config.Config) *App {
	logger := newLogger(cfg.Env)
	server := core.NewServer(serverOptions(cfg), logger)

	return &App{
		cfg:    cfg,
		server: server,
		logger: logger,
	}
}

// NewWithLogger creates an application instance with a caller-owned logger.
func NewWithLogger(cfg *config.Config, logger *zap.Logger) *App {
	return &App{
		cfg:    cfg,
		server: core.NewServer(serverOptions(cfg), logger),
		logger: logger,
	}
}

// Server returns the underlying server for route registration
func (a *App) Server() *core.Server {
	return a.server
}

// Run starts the application and blocks until shutdown.
func (a *App) Run() {
	go a.awaitSignal()

	a.logger.Info("starting",
		zap.String("host", a.cfg.Host),
		zap.Int("port", a.cfg.Port),
		zap.String("mode", a.cfg.ServerMode),
		zap.String("env", a.cfg.Env))

	if err := a.server.Listen(); err != nil {
		a.logger.Fatal("server startup failed", zap.Error(err))
	}
}

func (a *App) awaitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	a.logger.Info("signal received, shutting down", zap.String("signal", sig.String()))

	a.server.Shutdown()
	a.logger.Sync()
}

func newLogger(env string) *zap.Logger {
	if env == "production" {
		logger, err := zap.NewProduction()
		if err == nil {
			return logger
		}
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func serverOptions(cfg *config.Config) core.Options {
	return core.Options{
		Host:             cfg.Host,
		Port:             cfg.Port,
		WSPort:           cfg.WSPort,
		CertificateChain: cfg.CertificateChain,
		PrivateKey:       cfg.PrivateKey,
		Password:         cfg.Password,
		Mode:             core.Mode(cfg.ServerMode),
		WSOnMainThread:   cfg.UseWebsocketInMainThread,
		MaxConnections:   cfg.MaxConnections,
		StaticRoot:       cfg.StaticRoot,
		DirectoryListing: cfg.DirectoryListing,
		FollowSymlinks:   cfg.FollowSymlinks,
		JailToRoot:       cfg.JailToRoot,
	}
}
