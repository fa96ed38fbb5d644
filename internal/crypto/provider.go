package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/rs/zerolog"

	"moltspeak/internal/domain"
)

// Options selects the crypto provider.
type Options struct {
	// InsecureTestCrypto selects a non-cryptographic stand-in. It must only
	// ever be set by test configuration.
	InsecureTestCrypto bool
	Logger             zerolog.Logger
}

// NewProvider returns the NaCl provider unless the insecure stand-in was
// explicitly requested.
func NewProvider(opts Options) domain.CryptoProvider {
	if opts.InsecureTestCrypto {
		opts.Logger.Warn().
			Str("provider", insecureName).
			Msg("INSECURE TEST CRYPTO ENABLED: signatures are forgeable and payloads are not encrypted")
		return &InsecureTestProvider{log: opts.Logger}
	}
	return NaCl{}
}

// NaCl implements domain.CryptoProvider with Ed25519 and NaCl box.
type NaCl struct{}

func (NaCl) Name() string { return "nacl" }
func (NaCl) Secure() bool { return true }

func (NaCl) Sign(priv domain.Ed25519Private, msg []byte) ([]byte, error) {
	return SignEd25519(priv, msg), nil
}

func (NaCl) Verify(pub domain.Ed25519Public, msg, sig []byte) bool {
	return VerifyEd25519(pub, msg, sig)
}

func (NaCl) Seal(plaintext []byte, recipient domain.X25519Public, sender domain.X25519Private) ([]byte, [24]byte, error) {
	return SealBox(plaintext, recipient, sender)
}

func (NaCl) Open(ciphertext []byte, nonce [24]byte, sender domain.X25519Public, recipient domain.X25519Private) ([]byte, error) {
	return OpenBox(ciphertext, nonce, sender, recipient)
}

const insecureName = "insecure-test"

// InsecureTestProvider is a hash-based stand-in for constrained test
// environments. Signatures are SHA-256 digests anyone can forge, and Seal
// only tags the plaintext with the intended recipient. Never ship it.
type InsecureTestProvider struct {
	log zerolog.Logger
}

func (p *InsecureTestProvider) Name() string { return insecureName }
func (p *InsecureTestProvider) Secure() bool { return false }

func (p *InsecureTestProvider) Sign(priv domain.Ed25519Private, msg []byte) ([]byte, error) {
	p.warn("sign")
	return pseudoSignature(Ed25519PublicOf(priv), msg), nil
}

func (p *InsecureTestProvider) Verify(pub domain.Ed25519Public, msg, sig []byte) bool {
	p.warn("verify")
	return subtle.ConstantTimeCompare(pseudoSignature(pub, msg), sig) == 1
}

func (p *InsecureTestProvider) Seal(plaintext []byte, recipient domain.X25519Public, _ domain.X25519Private) ([]byte, [24]byte, error) {
	p.warn("seal")
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, nonce, err
	}
	tag := recipientTag(recipient, nonce)
	return append(tag, plaintext...), nonce, nil
}

func (p *InsecureTestProvider) Open(ciphertext []byte, nonce [24]byte, _ domain.X25519Public, recipient domain.X25519Private) ([]byte, error) {
	p.warn("open")
	tag := recipientTag(X25519PublicOf(recipient), nonce)
	if len(ciphertext) < len(tag) || !bytes.Equal(ciphertext[:len(tag)], tag) {
		return nil, ErrOpenFailed
	}
	return append([]byte(nil), ciphertext[len(tag):]...), nil
}

func (p *InsecureTestProvider) warn(op string) {
	p.log.Warn().Str("provider", insecureName).Str("op", op).Msg("insecure test crypto in use")
}

func pseudoSignature(pub domain.Ed25519Public, msg []byte) []byte {
	h := sha256.New()
	h.Write(pub[:])
	h.Write(msg)
	return h.Sum(nil)
}

func recipientTag(recipient domain.X25519Public, nonce [24]byte) []byte {
	h := sha256.New()
	h.Write(recipient[:])
	h.Write(nonce[:])
	return h.Sum(nil)[:16]
}

var (
	_ domain.CryptoProvider = NaCl{}
	_ domain.CryptoProvider = (*InsecureTestProvider)(nil)
)
