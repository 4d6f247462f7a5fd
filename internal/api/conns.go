package api

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// ConnRegistry tracks the open chat websockets of each browser session so
// they can be closed when the session logs out or expires.
type ConnRegistry struct {
	mu     sync.RWMutex
	active map[string]map[*websocket.Conn]struct{}
	logger *slog.Logger
}

// NewConnRegistry creates an empty registry.
func NewConnRegistry(logger *slog.Logger) *ConnRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnRegistry{
		active: make(map[string]map[*websocket.Conn]struct{}),
		logger: logger,
	}
}

// Count returns the number of open connections for a session.
func (m *ConnRegistry) Count(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active[sessionID])
}

// Register adds a connection for a session.
func (m *ConnRegistry) Register(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[sessionID]; !exists {
		m.active[sessionID] = make(map[*websocket.Conn]struct{})
	}
	m.active[sessionID][conn] = struct{}{}
	m.logger.Debug("Chat socket registered", "session_id", sessionID)
}

// Unregister removes a connection for a session.
func (m *ConnRegistry) Unregister(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.active[sessionID]
	if !ok {
		return
	}
	if _, exists := conns[conn]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.active, sessionID)
		}
		m.logger.Debug("Chat socket unregistered", "session_id", sessionID)
	}
}

// CloseSession closes every open connection of a session.
func (m *ConnRegistry) CloseSession(sessionID string) {
	m.mu.Lock()
	conns, ok := m.active[sessionID]
	delete(m.active, sessionID)
	m.mu.Unlock()

	if !ok {
		return
	}
	for conn := range conns {
		_ = conn.Close(websocket.StatusNormalClosure, "session closed")
	}
	m.logger.Info("Chat sockets closed", "session_id", sessionID, "count", len(conns))
}
