package websocket

import (
	"sync"

	"go.uber.org/zap"

	"github.com/searchktools/duplex-server/core/relation"
)

// Manager is the process-local registry of live sockets and their room
// memberships. Each WS route owns its own manager, so rooms at different
// routes are disjoint namespaces. The manager owns its sockets exclusively;
// sockets keep only a non-owning reference back.
type Manager struct {
	mu      sync.RWMutex
	sockets map[*Socket]struct{}
	rooms   *relation.Map[*Socket, string]

	logger *zap.Logger
}

// NewManager creates an empty manager. A nil logger disables logging.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sockets: make(map[*Socket]struct{}),
		rooms:   relation.NewMap[*Socket, string](),
		logger:  logger,
	}
}

// Add registers a socket on upgrade.
func (m *Manager) Add(s *Socket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sockets[s] = struct{}{}
}

// OnDisconnect removes the socket and every room membership it held.
// Idempotent: a second call for the same socket is a no-op.
func (m *Manager) OnDisconnect(s *Socket) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sockets[s]; !ok {
		return
	}
	delete(m.sockets, s)
	m.rooms.DropKey(s)
}

// Join adds the socket to a room. It returns true when the membership is
// new. The first member brings the room into existence.
func (m *Manager) Join(s *Socket, room string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := !m.rooms.HasValue(room)
	added := m.rooms.Relate(s, room)
	if added && created {
		m.logger.Debug("room created", zap.String("room", room))
	}
	return added
}

// Leave removes the socket from a room; the last member leaving removes
// the room.
func (m *Manager) Leave(s *Socket, room string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms.Unrelate(s, room)
}

// ByID finds a live socket by id. The registry is small enough that a
// linear scan is fine.
func (m *Manager) ByID(id int64) (*Socket, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for s := range m.sockets {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}

// Count returns the number of live sockets.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sockets)
}

// RoomsOf returns the rooms the socket belongs to.
func (m *Manager) RoomsOf(s *Socket) map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms.ValuesOf(s)
}

// MembersOf returns the members of a room.
func (m *Manager) MembersOf(room string) map[*Socket]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms.KeysOf(room)
}

// HasRoom reports whether a room currently has members.
func (m *Manager) HasRoom(room string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms.HasValue(room)
}

// SendToAll delivers a raw message to every live socket.
func (m *Manager) SendToAll(msg []byte) {
	m.sendAll(msg, nil)
}

// EmitToAll delivers a typed event to every live socket.
func (m *Manager) EmitToAll(event string, data any) error {
	payload, err := EncodeEvent(nil, event, data)
	if err != nil {
		return err
	}
	m.sendAll(payload, nil)
	return nil
}

// SendToRoom delivers a raw message to every member of a room.
func (m *Manager) SendToRoom(room string, msg []byte) {
	m.sendRoom(room, msg, nil)
}

// EmitToRoom delivers a typed event to every member of a room.
func (m *Manager) EmitToRoom(event, room string, payload any) error {
	encoded, err := EncodeEvent(nil, event, payload)
	if err != nil {
		return err
	}
	m.sendRoom(room, encoded, nil)
	return nil
}

// sendAll fans a payload out to every live socket, skipping except when it
// is non-nil. Targets are snapshotted first so a disconnect mid-fanout only
// costs that peer its delivery; per-peer write failures are dropped.
func (m *Manager) sendAll(payload []byte, except *Socket) {
	m.mu.RLock()
	targets := make([]*Socket, 0, len(m.sockets))
	for s := range m.sockets {
		if s == except {
			continue
		}
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	for _, s := range targets {
		if err := s.write(payload); err != nil {
			m.logger.Debug("fan-out write dropped",
				zap.Int64("socket", s.id), zap.Error(err))
		}
	}
}

// sendRoom fans a payload out to a room's members, skipping except when it
// is non-nil. Membership is not required of the sender.
func (m *Manager) sendRoom(room string, payload []byte, except *Socket) {
	m.mu.RLock()
	members := m.rooms.KeysOf(room)
	m.mu.RUnlock()

	for s := range members {
		if s == except {
			continue
		}
		if err := s.write(payload); err != nil {
			m.logger.Debug("room fan-out write dropped",
				zap.String("room", room), zap.Int64("socket", s.id), zap.Error(err))
		}
	}
}

// Close disposes every live socket, for server shutdown.
func (m *Manager) Close() {
	m.mu.RLock()
	targets := make([]*Socket, 0, len(m.sockets))
	for s := range m.sockets {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	for _, s := range targets {
		s.disposeWith(nil)
	}
}
