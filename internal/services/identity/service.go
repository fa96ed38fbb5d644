package identity

import (
	"fmt"
	"unicode"

	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
	"moltspeak/internal/message"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages an agent's long-term keys using a backing store.
//
// The identity contains:
//   - an Ed25519 key pair that signs every outgoing message.
//   - an X25519 key pair that peers seal confidential messages to.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// GenerateIdentity creates keys for agent@org, saves them encrypted with
// the passphrase, and returns the identity plus the fingerprint of its
// signing key.
func (s *Service) GenerateIdentity(
	passphrase, agent, org string,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}
	if err := message.ValidateName("agent", agent); err != nil {
		return domain.Identity{}, "", err
	}
	if err := message.ValidateName("org", org); err != nil {
		return domain.Identity{}, "", err
	}

	encryptionPrivateKey, encryptionPublicKey, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Identity{}, "", err
	}
	signingPrivateKey, signingPublicKey, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{
		Agent:  agent,
		Org:    org,
		XPub:   encryptionPublicKey,
		XPriv:  encryptionPrivateKey,
		EdPub:  signingPublicKey,
		EdPriv: signingPrivateKey,
	}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, Fingerprint(id), nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns the fingerprint of the local signing key.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	defer crypto.WipeIdentity(&id)
	return Fingerprint(id), nil
}

// Fingerprint is the short identifier peers compare out of band.
func Fingerprint(id domain.Identity) domain.Fingerprint {
	return crypto.Fingerprint(id.EdPub.Slice())
}

// Ref returns id as a message participant carrying both public keys.
func Ref(id domain.Identity) domain.AgentRef {
	return domain.AgentRef{
		Agent:  id.Agent,
		Org:    id.Org,
		Key:    crypto.EncodeSigningKey(id.EdPub),
		EncKey: crypto.EncodeEncryptionKey(id.XPub),
	}
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
