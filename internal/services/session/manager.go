package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"moltspeak/internal/domain"
	"moltspeak/internal/message"
)

const (
	// DefaultMaxSessions bounds a manager created without WithMaxSessions.
	DefaultMaxSessions = 100
	// DefaultTTL is the lifetime of a session created without WithTTL.
	DefaultTTL = time.Hour
)

// Option configures a Manager.
type Option func(*Manager)

// WithMaxSessions sets the capacity. Values below 1 are ignored.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSessions = n
		}
	}
}

// WithDefaultTTL sets the lifetime used when Create is not given one.
func WithDefaultTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// CreateOption configures a single Create call.
type CreateOption func(*createConfig)

type createConfig struct {
	ttl      time.Duration
	noExpiry bool
	caps     []string
}

// WithTTL overrides the manager's default lifetime.
func WithTTL(d time.Duration) CreateOption {
	return func(c *createConfig) { c.ttl = d }
}

// WithoutExpiry creates a session that never expires.
func WithoutExpiry() CreateOption {
	return func(c *createConfig) { c.noExpiry = true }
}

// WithCapabilities grants capabilities for the lifetime of the session.
func WithCapabilities(caps ...string) CreateOption {
	return func(c *createConfig) { c.caps = append(c.caps, caps...) }
}

// Manager owns a bounded set of sessions, indexed by id and by remote
// agent. It is safe for concurrent use.
type Manager struct {
	mu          sync.Mutex
	sessions    map[domain.SessionID]*Session
	byRemote    map[string][]domain.SessionID
	maxSessions int
	ttl         time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

// NewManager returns an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[domain.SessionID]*Session),
		byRemote:    make(map[string][]domain.SessionID),
		maxSessions: DefaultMaxSessions,
		ttl:         DefaultTTL,
		now:         time.Now,
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create admits a new session with remote.
//
// Steps:
//  1. Validate the agent names.
//  2. Drop every expired session.
//  3. If still at capacity, evict the least recently active session.
//  4. Allocate the session under a fresh random id and index it by remote.
func (m *Manager) Create(
	local, remote, remoteOrg string,
	remoteKey domain.Ed25519Public,
	opts ...CreateOption,
) (*Session, error) {
	for _, n := range [][2]string{{"local", local}, {"remote", remote}, {"remote_org", remoteOrg}} {
		if err := message.ValidateName(n[0], n[1]); err != nil {
			return nil, err
		}
	}
	cfg := createConfig{ttl: m.ttl}
	for _, o := range opts {
		o(&cfg)
	}
	if !cfg.noExpiry && cfg.ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)
	for len(m.sessions) >= m.maxSessions {
		m.evictLocked()
	}

	s := &Session{
		id:           domain.SessionID(uuid.NewString()),
		local:        local,
		remote:       remote,
		remoteOrg:    remoteOrg,
		remoteKey:    remoteKey,
		capabilities: make(map[string]struct{}, len(cfg.caps)),
		createdAt:    now,
		now:          m.now,
		lastActivity: now,
	}
	for _, c := range cfg.caps {
		s.capabilities[c] = struct{}{}
	}
	if !cfg.noExpiry {
		s.expiresAt = now.Add(cfg.ttl)
	}
	m.sessions[s.id] = s
	m.byRemote[remote] = append(m.byRemote[remote], s.id)

	m.log.Debug().
		Str("session", s.id.String()).
		Str("remote", remote+"@"+remoteOrg).
		Int("active", len(m.sessions)).
		Msg("session created")
	return s, nil
}

// Get returns the session if it exists and has not expired. An expired
// session is removed on the way out.
func (m *Manager) Get(id domain.SessionID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id, m.now())
}

// GetForRemote returns a live session with the named remote agent, if any.
func (m *Manager) GetForRemote(remote string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, id := range append([]domain.SessionID(nil), m.byRemote[remote]...) {
		if s, ok := m.getLocked(id, now); ok {
			return s, true
		}
	}
	return nil, false
}

// GetForPeer returns a live session with agent@org, if any. Agents with the
// same name in other orgs are skipped.
func (m *Manager) GetForPeer(agent, org string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, id := range append([]domain.SessionID(nil), m.byRemote[agent]...) {
		if s, ok := m.getLocked(id, now); ok && s.remoteOrg == org {
			return s, true
		}
	}
	return nil, false
}

// Remove deletes the session and reports whether it existed.
func (m *Manager) Remove(id domain.SessionID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

// Len counts stored sessions, including expired ones not yet observed.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ActiveCount drops expired sessions and counts the rest.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(m.now())
	return len(m.sessions)
}

// List returns every live session.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(m.now())
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) getLocked(id domain.SessionID, now time.Time) (*Session, bool) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	valid := s.validAt(now)
	s.mu.Unlock()
	if !valid {
		m.removeLocked(id)
		m.log.Debug().Str("session", id.String()).Msg("session expired")
		return nil, false
	}
	return s, true
}

func (m *Manager) sweepLocked(now time.Time) {
	for id := range m.sessions {
		m.getLocked(id, now)
	}
}

func (m *Manager) evictLocked() {
	var (
		oldest   *Session
		oldestAt time.Time
	)
	for _, s := range m.sessions {
		at := s.LastActivity()
		if oldest == nil || at.Before(oldestAt) {
			oldest, oldestAt = s, at
		}
	}
	if oldest == nil {
		return
	}
	m.removeLocked(oldest.id)
	m.log.Info().
		Str("session", oldest.id.String()).
		Str("remote", oldest.remote).
		Msg("session evicted at capacity")
}

func (m *Manager) removeLocked(id domain.SessionID) bool {
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	delete(m.sessions, id)
	ids := m.byRemote[s.remote]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.byRemote, s.remote)
	} else {
		m.byRemote[s.remote] = ids
	}
	return true
}
