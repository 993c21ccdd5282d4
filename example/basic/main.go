package main

import (
	"encoding/json"
	"strings"

	"github.com/searchktools/duplex-server/app"
	"github.com/searchktools/duplex-server/config"
	"github.com/searchktools/duplex-server/core/http"
	"github.com/searchktools/duplex-server/core/middleware"
	"github.com/searchktools/duplex-server/core/websocket"
)

func main() {
	cfg := config.Default()
	cfg.ServerMode = "compatibility"
	cfg.Port = 8080

	application := app.New(cfg)
	server := application.Server()

	server.Use(middleware.SecurityHeaders())
	server.Use(middleware.CORS(middleware.CORSOptions{}))

	server.Get("/", func(req *http.RequestCtx, res *http.ResponseCtx) {
		res.SendString("Hello World!")
	})

	server.Get("/user/:id", func(req *http.RequestCtx, res *http.ResponseCtx) {
		res.JSON(200, map[string]string{"user": req.Param("id")})
	})

	server.Post("/echo", func(req *http.RequestCtx, res *http.ResponseCtx) {
		payload, err := req.Payload()
		if err != nil {
			res.Error(400, err.Error())
			return
		}
		res.JSON(200, payload)
	})

	server.WS("/chat", func(sock *websocket.Socket) {
		sock.On("join", func(data json.RawMessage) {
			var room string
			if err := json.Unmarshal(data, &room); err != nil {
				return
			}
			sock.Join(room)
			sock.BroadcastEventToRoom("joined", room, sock.ID())
		})

		sock.On("say", func(data json.RawMessage) {
			var msg struct {
				Room string `json:"room"`
				Text string `json:"text"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				return
			}
			sock.EmitToRoom("message", msg.Room, strings.TrimSpace(msg.Text))
		})

		sock.OnClose(func() {
			// Room memberships are dropped by the manager on disconnect.
		})
	})

	application.Run()
}
