package store

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
	"moltspeak/internal/message"
)

const peersFilename = "peers.json"

// PeerFileStore pins remote agents' public keys, keyed by "agent@org".
type PeerFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPeerFileStore returns a PeerFileStore rooted at dir.
func NewPeerFileStore(dir string) *PeerFileStore {
	return &PeerFileStore{dir: dir}
}

func (s *PeerFileStore) path() string { return filepath.Join(s.dir, peersFilename) }

// Pin records ref's keys, replacing any earlier entry for the same agent.
func (s *PeerFileStore) Pin(ref domain.AgentRef) error {
	if err := message.ValidateAgentRef("peer", ref); err != nil {
		return err
	}
	if ref.Key == "" {
		return errs.MissingField("peer.key")
	}
	// Store the canonical prefixed form.
	pub, _ := crypto.ParseSigningKey(ref.Key)
	ref.Key = crypto.EncodeSigningKey(pub)
	if ref.EncKey != "" {
		enc, _ := crypto.ParseEncryptionKey(ref.EncKey)
		ref.EncKey = crypto.EncodeEncryptionKey(enc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	peers := map[string]domain.AgentRef{}
	if err := readJSON(s.path(), &peers); err != nil {
		return err
	}
	peers[ref.String()] = ref
	return writeJSON(s.path(), peers, 0o600)
}

// Lookup returns the pinned entry for agent@org.
func (s *PeerFileStore) Lookup(agent, org string) (domain.AgentRef, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	peers := map[string]domain.AgentRef{}
	if err := readJSON(s.path(), &peers); err != nil {
		return domain.AgentRef{}, false, err
	}
	ref, ok := peers[domain.AgentRef{Agent: agent, Org: org}.String()]
	return ref, ok, nil
}

// List returns every pinned peer ordered by name.
func (s *PeerFileStore) List() ([]domain.AgentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	peers := map[string]domain.AgentRef{}
	if err := readJSON(s.path(), &peers); err != nil {
		return nil, err
	}
	out := make([]domain.AgentRef, 0, len(peers))
	for _, ref := range peers {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// Resolve implements domain.KeyResolver from the pinned keys.
func (s *PeerFileStore) Resolve(_ context.Context, ref domain.AgentRef) (domain.AgentRef, error) {
	pinned, ok, err := s.Lookup(ref.Agent, ref.Org)
	if err != nil {
		return domain.AgentRef{}, err
	}
	if !ok {
		return domain.AgentRef{}, errs.Signature("no pinned key for %s", ref)
	}
	return pinned, nil
}

var _ domain.KeyResolver = (*PeerFileStore)(nil)
