package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moltspeak/internal/domain"
	"moltspeak/internal/services/session"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock { return &fakeClock{t: time.Unix(1700000000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestCreateAndGet(t *testing.T) {
	clock := newClock()
	m := session.NewManager(session.WithClock(clock.Now))

	s, err := m.Create("alice", "bob", "acme", domain.Ed25519Public{1}, session.WithCapabilities("query.weather", "tool.invoke"))
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "bob", s.RemoteAgent())
	assert.Equal(t, "acme", s.RemoteOrg())
	assert.Equal(t, domain.Ed25519Public{1}, s.RemotePublicKey())
	assert.Equal(t, []string{"query.weather", "tool.invoke"}, s.Capabilities())
	assert.True(t, s.HasCapability("tool.invoke"))
	assert.False(t, s.HasCapability("admin"))
	assert.Equal(t, []string{"admin"}, s.Missing([]string{"tool.invoke", "admin"}))

	exp, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(session.DefaultTTL), exp)

	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	byRemote, ok := m.GetForRemote("bob")
	require.True(t, ok)
	assert.Same(t, s, byRemote)
}

func TestCreate_RejectsBadNames(t *testing.T) {
	m := session.NewManager()
	_, err := m.Create("alice", "bob smith", "acme", domain.Ed25519Public{})
	assert.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestLazyExpiry(t *testing.T) {
	clock := newClock()
	m := session.NewManager(session.WithClock(clock.Now))

	s, err := m.Create("alice", "bob", "acme", domain.Ed25519Public{}, session.WithTTL(time.Second))
	require.NoError(t, err)
	assert.True(t, s.IsValid())

	clock.Advance(time.Second)
	// Still stored until someone looks.
	assert.Equal(t, 1, m.Len())
	assert.False(t, s.IsValid())

	_, ok := m.Get(s.ID())
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())

	_, ok = m.GetForRemote("bob")
	assert.False(t, ok)
}

func TestWithoutExpiry(t *testing.T) {
	clock := newClock()
	m := session.NewManager(session.WithClock(clock.Now))

	s, err := m.Create("alice", "bob", "acme", domain.Ed25519Public{}, session.WithoutExpiry())
	require.NoError(t, err)
	_, ok := s.ExpiresAt()
	assert.False(t, ok)

	clock.Advance(365 * 24 * time.Hour)
	s.Extend(time.Minute)
	_, ok = m.Get(s.ID())
	assert.True(t, ok)
	_, ok = s.ExpiresAt()
	assert.False(t, ok)
}

func TestTouchAndExtend(t *testing.T) {
	clock := newClock()
	m := session.NewManager(session.WithClock(clock.Now), session.WithDefaultTTL(time.Minute))
	s, err := m.Create("alice", "bob", "acme", domain.Ed25519Public{})
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	s.Touch()
	s.Touch()
	assert.Equal(t, uint64(2), s.MessageCount())
	assert.Equal(t, clock.Now(), s.LastActivity())

	s.Extend(5 * time.Minute)
	exp, _ := s.ExpiresAt()
	assert.Equal(t, clock.Now().Add(5*time.Minute), exp)

	// Extending to an earlier time never shortens the session.
	s.Extend(time.Second)
	again, _ := s.ExpiresAt()
	assert.Equal(t, exp, again)

	clock.Advance(2 * time.Minute)
	_, ok := m.Get(s.ID())
	assert.True(t, ok)
}

func TestCapacityEvictsLeastRecentlyActive(t *testing.T) {
	clock := newClock()
	m := session.NewManager(session.WithClock(clock.Now), session.WithMaxSessions(3))

	var ids []domain.SessionID
	for _, remote := range []string{"a", "b", "c"} {
		s, err := m.Create("me", remote, "acme", domain.Ed25519Public{})
		require.NoError(t, err)
		ids = append(ids, s.ID())
		clock.Advance(time.Second)
	}
	first, _ := m.Get(ids[0])
	first.Touch()

	_, err := m.Create("me", "d", "acme", domain.Ed25519Public{})
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	_, ok := m.Get(ids[1])
	assert.False(t, ok, "b had the oldest activity")
	_, ok = m.Get(ids[0])
	assert.True(t, ok)
	_, ok = m.GetForRemote("b")
	assert.False(t, ok)
}

func TestCreate_SweepsBeforeEvicting(t *testing.T) {
	clock := newClock()
	m := session.NewManager(session.WithClock(clock.Now), session.WithMaxSessions(2))

	short, err := m.Create("me", "a", "acme", domain.Ed25519Public{}, session.WithTTL(time.Second))
	require.NoError(t, err)
	long, err := m.Create("me", "b", "acme", domain.Ed25519Public{})
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = m.Create("me", "c", "acme", domain.Ed25519Public{})
	require.NoError(t, err)

	_, ok := m.Get(short.ID())
	assert.False(t, ok)
	_, ok = m.Get(long.ID())
	assert.True(t, ok, "the expired session makes room, not the live one")
	assert.Equal(t, 2, m.ActiveCount())
}

func TestRemoveAndList(t *testing.T) {
	m := session.NewManager()
	s1, err := m.Create("me", "bob", "acme", domain.Ed25519Public{})
	require.NoError(t, err)
	s2, err := m.Create("me", "bob", "acme", domain.Ed25519Public{})
	require.NoError(t, err)
	assert.Len(t, m.List(), 2)

	assert.True(t, m.Remove(s1.ID()))
	assert.False(t, m.Remove(s1.ID()))

	got, ok := m.GetForRemote("bob")
	require.True(t, ok)
	assert.Equal(t, s2.ID(), got.ID())
}

func TestGetForPeer_MatchesOrg(t *testing.T) {
	m := session.NewManager()
	other, err := m.Create("me", "bob", "globex", domain.Ed25519Public{2})
	require.NoError(t, err)
	want, err := m.Create("me", "bob", "acme", domain.Ed25519Public{1})
	require.NoError(t, err)

	got, ok := m.GetForPeer("bob", "acme")
	require.True(t, ok)
	assert.Same(t, want, got)

	got, ok = m.GetForPeer("bob", "globex")
	require.True(t, ok)
	assert.Same(t, other, got)

	_, ok = m.GetForPeer("bob", "initech")
	assert.False(t, ok)
}

func TestConcurrentCreateRespectsCapacity(t *testing.T) {
	m := session.NewManager(session.WithMaxSessions(10))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Create("me", "peer", "acme", domain.Ed25519Public{})
			if err == nil {
				s.Touch()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, m.Len())
}
