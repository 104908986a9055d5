package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/medperplexity/clinical-api/logging"
)

func TestIssueAndResolve(t *testing.T) {
	logging.InitLogger("")
	m := NewSessionManager(time.Hour)

	token := m.Issue("DOC-001")
	if token == "" {
		t.Fatal("Expected a non-empty token")
	}

	doctorID, ok := m.Resolve(token)
	if !ok {
		t.Fatal("Expected freshly issued token to resolve")
	}
	if doctorID != "DOC-001" {
		t.Errorf("Expected DOC-001, got %q", doctorID)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	logging.InitLogger("")
	m := NewSessionManager(time.Hour)

	if _, ok := m.Resolve("not-a-token"); ok {
		t.Error("Expected unknown token to be rejected")
	}
}

func TestTokensAreUnique(t *testing.T) {
	logging.InitLogger("")
	m := NewSessionManager(time.Hour)

	first := m.Issue("DOC-001")
	second := m.Issue("DOC-001")
	if first == second {
		t.Error("Expected distinct tokens for separate logins")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	logging.InitLogger("")
	m := NewSessionManager(30 * time.Minute)

	current := time.Now()
	m.now = func() time.Time { return current }

	token := m.Issue("DOC-001")
	current = current.Add(31 * time.Minute)

	if _, ok := m.Resolve(token); ok {
		t.Error("Expected expired token to be rejected")
	}
	// Lazy expiry also removes the entry
	if m.Active() != 0 {
		t.Errorf("Expected expired session dropped on resolve, %d left", m.Active())
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	logging.InitLogger("")
	m := NewSessionManager(30 * time.Minute)

	current := time.Now()
	m.now = func() time.Time { return current }

	stale := m.Issue("DOC-001")
	current = current.Add(31 * time.Minute)
	fresh := m.Issue("DOC-002")

	if removed := m.Sweep(); removed != 1 {
		t.Errorf("Expected 1 session swept, got %d", removed)
	}
	if _, ok := m.Resolve(stale); ok {
		t.Error("Expected stale session gone after sweep")
	}
	if _, ok := m.Resolve(fresh); !ok {
		t.Error("Expected fresh session to survive sweep")
	}
	if m.Active() != 1 {
		t.Errorf("Expected 1 active session, got %d", m.Active())
	}
}

func TestRevoke(t *testing.T) {
	logging.InitLogger("")
	m := NewSessionManager(time.Hour)

	token := m.Issue("DOC-001")
	m.Revoke(token)

	if _, ok := m.Resolve(token); ok {
		t.Error("Expected revoked token to be rejected")
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	logging.InitLogger("")

	m := NewSessionManager(0)
	if m.ttl != DefaultSessionTTL {
		t.Errorf("Expected default TTL %v, got %v", DefaultSessionTTL, m.ttl)
	}
}

func TestConcurrentSessionAccess(t *testing.T) {
	logging.InitLogger("")
	m := NewSessionManager(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token := m.Issue("DOC-001")
			if _, ok := m.Resolve(token); !ok {
				t.Error("Expected concurrent issue/resolve to succeed")
			}
			m.Sweep()
		}()
	}
	wg.Wait()

	if m.Active() != 10 {
		t.Errorf("Expected 10 live sessions, got %d", m.Active())
	}
}
