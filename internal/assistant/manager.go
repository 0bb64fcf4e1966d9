package assistant

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zachkp/folio/internal/logger"
)

// ErrSessionNotFound is returned for unknown or torn-down session ids.
var ErrSessionNotFound = errors.New("assistant session not found")

const evictionInterval = time.Minute

// Manager owns the live sessions of a server process and the signal bus
// they are mounted on.
type Manager struct {
	responder *Responder
	bus       *Bus
	ttl       time.Duration
	opts      []Option
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager. A ttl of zero disables idle eviction.
func NewManager(responder *Responder, bus *Bus, ttl time.Duration, opts ...Option) *Manager {
	if responder == nil {
		responder = DefaultResponder()
	}
	if bus == nil {
		bus = NewBus()
	}
	return &Manager{
		responder: responder,
		bus:       bus,
		ttl:       ttl,
		opts:      opts,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Bus returns the bus sessions are mounted on.
func (m *Manager) Bus() *Bus {
	return m.bus
}

// Responder returns the shared responder.
func (m *Manager) Responder() *Responder {
	return m.responder
}

// Create starts and mounts a new session.
func (m *Manager) Create() *Session {
	s := NewSession(uuid.NewString(), m.responder, m.opts...)
	s.Mount(m.bus)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	count := len(m.sessions)
	m.mu.Unlock()

	logger.Debug("Assistant session created", "session_id", s.ID(), "active", count)
	return s
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || !s.Alive() {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Teardown removes and tears down a session.
func (m *Manager) Teardown(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Teardown()
	logger.Debug("Assistant session torn down", "session_id", id)
	return nil
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle tears down sessions idle for longer than the ttl and returns
// how many were removed.
func (m *Manager) EvictIdle() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if !s.Alive() || s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Teardown()
	}
	if len(expired) > 0 {
		logger.Info("Evicted idle assistant sessions", "count", len(expired), "ttl", m.ttl)
	}
	return len(expired)
}

// StartEviction runs EvictIdle periodically until ctx is done.
func (m *Manager) StartEviction(ctx context.Context) {
	if m.ttl <= 0 {
		return
	}
	interval := evictionInterval
	if m.ttl < interval {
		interval = m.ttl
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.EvictIdle()
			}
		}
	}()
}

// Shutdown tears down every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Teardown()
	}
}
