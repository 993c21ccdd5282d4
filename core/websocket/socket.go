package websocket

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/searchktools/duplex-server/core/codec"
)

// socketIDCounter hands out process-unique socket ids.
var socketIDCounter atomic.Int64

// transport is the connection surface Socket needs; *Conn implements it.
type transport interface {
	WriteMessage(opcode OpCode, payload []byte) error
	ReadMessage() (*Message, error)
	CloseWith(code int, reason string) error
	IsClosed() bool
}

// Socket is a single WebSocket session. It exclusively owns its transport
// and notifier and holds a non-owning reference to the manager it is
// registered with; on disconnect it tells the manager to drop it, which
// also removes all of its room memberships.
type Socket struct {
	id       int64
	conn     transport
	manager  *Manager
	notifier *Notifier

	payloadCodec codec.Codec

	attrsMu sync.RWMutex
	attrs   map[string]any

	disposed atomic.Bool
}

// NewSocket wraps an upgraded connection and registers it with the manager.
func NewSocket(conn *Conn, manager *Manager) *Socket {
	return newSocket(conn, manager)
}

func newSocket(conn transport, manager *Manager) *Socket {
	s := &Socket{
		id:           socketIDCounter.Add(1),
		conn:         conn,
		manager:      manager,
		notifier:     NewNotifier(),
		payloadCodec: &codec.JSONCodec{},
		attrs:        make(map[string]any),
	}
	manager.Add(s)
	return s
}

// ID returns the process-unique id of this connection.
func (s *Socket) ID() int64 {
	return s.id
}

// SetCodec replaces the payload codec used by the Emit family.
func (s *Socket) SetCodec(c codec.Codec) {
	if c != nil {
		s.payloadCodec = c
	}
}

// Set attaches a user attribute to the connection for its lifetime.
func (s *Socket) Set(key string, value any) {
	s.attrsMu.Lock()
	defer s.attrsMu.Unlock()
	s.attrs[key] = value
}

// Get reads a user attribute.
func (s *Socket) Get(key string) any {
	s.attrsMu.RLock()
	defer s.attrsMu.RUnlock()
	return s.attrs[key]
}

// Listen delivers transport messages to the notifier until the connection
// ends, then disposes the socket. It blocks, so the caller owns pacing:
// messages reach this connection's callbacks in transport order.
func (s *Socket) Listen() {
	s.notifier.DispatchOpen()

	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			s.disposeWith(closeError(err))
			return
		}
		s.notifier.DispatchMessage(msg.Payload)
	}
}

// Send writes a raw text frame to this peer.
func (s *Socket) Send(msg []byte) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	return s.conn.WriteMessage(OpText, msg)
}

// Emit sends a typed event to this peer.
func (s *Socket) Emit(event string, data any) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	payload, err := EncodeEvent(s.payloadCodec, event, data)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(OpText, payload)
}

// Join adds this connection to a room.
func (s *Socket) Join(room string) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	s.manager.Join(s, room)
	return nil
}

// Leave removes this connection from a room.
func (s *Socket) Leave(room string) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	s.manager.Leave(s, room)
	return nil
}

// Broadcast sends to every live peer except this one.
func (s *Socket) Broadcast(msg []byte) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	s.manager.sendAll(msg, s)
	return nil
}

// BroadcastEvent sends a typed event to every live peer except this one.
func (s *Socket) BroadcastEvent(event string, data any) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	payload, err := EncodeEvent(s.payloadCodec, event, data)
	if err != nil {
		return err
	}
	s.manager.sendAll(payload, s)
	return nil
}

// SendToAll sends to every live peer including this one.
func (s *Socket) SendToAll(msg []byte) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	s.manager.sendAll(msg, nil)
	return nil
}

// EmitToAll sends a typed event to every live peer including this one.
func (s *Socket) EmitToAll(event string, data any) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	payload, err := EncodeEvent(s.payloadCodec, event, data)
	if err != nil {
		return err
	}
	s.manager.sendAll(payload, nil)
	return nil
}

// SendToRoom sends to every member of the room, whether or not this
// connection belongs to it.
func (s *Socket) SendToRoom(room string, msg []byte) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	s.manager.sendRoom(room, msg, nil)
	return nil
}

// EmitToRoom sends a typed event to every member of the room.
func (s *Socket) EmitToRoom(event, room string, payload any) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	encoded, err := EncodeEvent(s.payloadCodec, event, payload)
	if err != nil {
		return err
	}
	s.manager.sendRoom(room, encoded, nil)
	return nil
}

// BroadcastToRoom sends to every member of the room except this one.
func (s *Socket) BroadcastToRoom(room string, msg []byte) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	s.manager.sendRoom(room, msg, s)
	return nil
}

// BroadcastEventToRoom sends a typed event to every member of the room
// except this one.
func (s *Socket) BroadcastEventToRoom(event, room string, data any) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	payload, err := EncodeEvent(s.payloadCodec, event, data)
	if err != nil {
		return err
	}
	s.manager.sendRoom(room, payload, s)
	return nil
}

// On subscribes to a named event type.
func (s *Socket) On(event string, fn func(data json.RawMessage)) error {
	return s.notifier.On(event, fn)
}

// OnMessage subscribes to every inbound message.
func (s *Socket) OnMessage(fn func(data []byte)) error {
	return s.notifier.OnMessage(fn)
}

// OnOpen subscribes to the open event.
func (s *Socket) OnOpen(fn func()) error {
	return s.notifier.OnOpen(fn)
}

// OnClose subscribes to the close event.
func (s *Socket) OnClose(fn func()) error {
	return s.notifier.OnClose(fn)
}

// OnError subscribes to transport errors.
func (s *Socket) OnError(fn func(err error)) error {
	return s.notifier.OnError(fn)
}

// Close shuts the session down with a close frame and removes the socket
// from its manager.
func (s *Socket) Close(code int, reason string) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	if code == 0 {
		code = CloseNormal
	}
	err := s.conn.CloseWith(code, reason)
	s.disposeWith(nil)
	return err
}

// write delivers a payload during fan-out; failures are reported to the
// caller, which suppresses them per peer.
func (s *Socket) write(payload []byte) error {
	if s.disposed.Load() {
		return ErrClosedSocket
	}
	return s.conn.WriteMessage(OpText, payload)
}

func (s *Socket) disposeWith(err error) {
	if s.disposed.Swap(true) {
		return
	}
	s.manager.OnDisconnect(s)
	if !s.conn.IsClosed() {
		s.conn.CloseWith(CloseNormal, "")
	}
	s.notifier.DispatchClose(err)
}

// closeError maps a normal end-of-stream to a clean close.
func closeError(err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
