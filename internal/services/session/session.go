package session

import (
	"slices"
	"sync"
	"time"

	"moltspeak/internal/domain"
)

// Session is one live conversation between a local agent and a remote
// agent. Only Touch and Extend mutate it.
type Session struct {
	id           domain.SessionID
	local        string
	remote       string
	remoteOrg    string
	remoteKey    domain.Ed25519Public
	capabilities map[string]struct{}
	createdAt    time.Time

	mu           sync.Mutex
	now          func() time.Time
	expiresAt    time.Time // zero means never
	lastActivity time.Time
	messageCount uint64
}

func (s *Session) ID() domain.SessionID { return s.id }

// LocalAgent is the name of our side of the conversation.
func (s *Session) LocalAgent() string { return s.local }

// RemoteAgent is the peer's agent name.
func (s *Session) RemoteAgent() string { return s.remote }

func (s *Session) RemoteOrg() string { return s.remoteOrg }

// RemotePublicKey is the Ed25519 key the peer's messages are verified with.
func (s *Session) RemotePublicKey() domain.Ed25519Public { return s.remoteKey }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// ExpiresAt returns the expiry and false when the session never expires.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt, !s.expiresAt.IsZero()
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) MessageCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageCount
}

// Capabilities returns the capabilities granted at creation, sorted.
func (s *Session) Capabilities() []string {
	out := make([]string, 0, len(s.capabilities))
	for c := range s.capabilities {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// HasCapability reports whether c was granted at creation.
func (s *Session) HasCapability(c string) bool {
	_, ok := s.capabilities[c]
	return ok
}

// Missing returns the entries of required the session does not hold.
func (s *Session) Missing(required []string) []string {
	var missing []string
	for _, c := range required {
		if !s.HasCapability(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Touch records one message of activity. lastActivity never moves
// backwards, even if the clock does.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.now(); t.After(s.lastActivity) {
		s.lastActivity = t
	}
	s.messageCount++
}

// Extend pushes the expiry to d from now. A session that never expires
// stays that way.
func (s *Session) Extend(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expiresAt.IsZero() {
		return
	}
	if t := s.now().Add(d); t.After(s.expiresAt) {
		s.expiresAt = t
	}
}

// IsValid reports whether the session has not yet expired.
func (s *Session) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validAt(s.now())
}

func (s *Session) validAt(t time.Time) bool {
	return s.expiresAt.IsZero() || t.Before(s.expiresAt)
}
