/*
Package duplexserver provides a lightweight HTTP + WebSocket serving framework for Go.

Duplex-Server serves plain HTTP routes and WebSocket sessions from one route
table. In performance mode several workers share the HTTP listening port
through SO_REUSEPORT while a dedicated worker owns a second port for
WebSocket upgrades; compatibility mode collapses everything onto a single
listener.

# Features

  - Trie routing: literal, :param, and * path segments with captured parameters
  - Multi-worker serving: shared-socket listeners, one route tree per worker
    and one socket registry per route in each worker
  - WebSocket sessions: typed events, rooms, unicast/room-cast/broadcast
    fan-out with sender exclusion
  - Middleware pipeline: ordered chain with short-circuit semantics, plus
    built-in security-header, CORS, request-id, and access-log middlewares
  - Static files: directory listing, symlink, and jail-to-root knobs with a
    sendfile fast path
  - TLS termination from a certificate chain and (optionally encrypted) key
  - Configuration from file and environment with hot-reload watching

# Quick Start

Basic usage example:

	package main

	import (
		"github.com/searchktools/duplex-server/app"
		"github.com/searchktools/duplex-server/config"
		"github.com/searchktools/duplex-server/core/http"
	)

	func main() {
		cfg := config.Default()
		application := app.New(cfg)

		server := application.Server()
		server.Get("/hello", func(req *http.RequestCtx, res *http.ResponseCtx) {
			res.SendString("Hello, World!")
		})

		server.Get("/json", func(req *http.RequestCtx, res *http.ResponseCtx) {
			res.JSON(200, map[string]string{
				"message": "Duplex Server",
				"status":  "running",
			})
		})

		application.Run()
	}

# Modules

The framework is organized into several modules:

  - app: Application lifecycle management
  - config: Configuration loading, environment overrides, change watching
  - core: Server, workers, listeners, route dispatch
  - core/http: Request/response contexts and body payload parsing
  - core/router: Segment-trie routing
  - core/relation: Bidirectional many-to-many maps (room membership)
  - core/middleware: Middleware chain and built-ins
  - core/websocket: Framing, upgrade, sockets, rooms, fan-out
  - core/codec: Event payload codecs (JSON, protobuf)
  - core/static: Static file serving

For more information, see https://github.com/searchktools/duplex-server
*/
package duplexserver
