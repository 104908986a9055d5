package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medperplexity/clinical-api/logging"
)

// DefaultSessionTTL matches the 60 minute token life the API documents.
const DefaultSessionTTL = 60 * time.Minute

type session struct {
	doctorID  string
	expiresAt time.Time
}

// SessionManager issues opaque bearer tokens and keeps them in memory.
// Tokens expire after the configured TTL. Expired entries are dropped
// lazily on Resolve and in bulk by Sweep, which runs on a schedule.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		sessions: make(map[string]session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue creates a fresh token bound to the doctor id.
func (m *SessionManager) Issue(doctorID string) string {
	token := uuid.NewString()

	m.mu.Lock()
	m.sessions[token] = session{doctorID: doctorID, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()

	return token
}

// Resolve returns the doctor id a live token is bound to.
func (m *SessionManager) Resolve(token string) (string, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return "", false
	}
	if m.now().After(sess.expiresAt) {
		m.Revoke(token)
		return "", false
	}
	return sess.doctorID, true
}

// Revoke drops a token immediately.
func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Sweep removes every expired session and reports how many were dropped.
func (m *SessionManager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	removed := 0
	for token, sess := range m.sessions {
		if now.After(sess.expiresAt) {
			delete(m.sessions, token)
			removed++
		}
	}
	m.mu.Unlock()

	if removed > 0 {
		logging.Info("Expired sessions swept", "removed", removed)
	}
	return removed
}

// Active returns the number of stored sessions, expired but unswept
// entries included.
func (m *SessionManager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
