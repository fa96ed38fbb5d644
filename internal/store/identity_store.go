package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
)

const idFilename = "identity.json.enc"

// ErrNoIdentity is returned when no identity has been generated yet.
var ErrNoIdentity = errors.New("no identity found; run keygen first")

// IdentityFileStore persists the local identity to disk.
type IdentityFileStore struct {
	dir string
	kdf ScryptParams
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, kdf: DefaultScrypt}
}

// WithScrypt replaces the key derivation parameters used for new writes.
// Existing files carry their own parameters.
func (s *IdentityFileStore) WithScrypt(p ScryptParams) *IdentityFileStore {
	s.kdf = p
	return s
}

// Path is the location of the sealed identity.
func (s *IdentityFileStore) Path() string { return filepath.Join(s.dir, idFilename) }

// Exists reports whether an identity has been saved.
func (s *IdentityFileStore) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// SaveIdentity seals id with passphrase and writes it atomically.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)
	blob, err := seal(passphrase, idFilename, raw, s.kdf)
	if err != nil {
		return fmt.Errorf("seal identity: %w", err)
	}
	return writeFile(s.Path(), blob, 0o600)
}

// LoadIdentity reads and unseals the identity.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.Path())
	if err != nil {
		return domain.Identity{}, err
	}
	if b == nil {
		return domain.Identity{}, ErrNoIdentity
	}
	pt, err := unseal(passphrase, idFilename, b)
	if err != nil {
		return domain.Identity{}, err
	}
	defer crypto.Wipe(pt)
	var id domain.Identity
	if err := json.Unmarshal(pt, &id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
