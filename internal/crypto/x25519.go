package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"

	"moltspeak/internal/domain"
)

// GenerateX25519 returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv domain.X25519Private, pub domain.X25519Public, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return
	}
	clamp(&priv)
	return priv, X25519PublicOf(priv), nil
}

// X25519PublicOf derives the public key for priv.
func X25519PublicOf(priv domain.X25519Private) (pub domain.X25519Public) {
	curve25519.ScalarBaseMult((*[32]byte)(&pub), (*[32]byte)(&priv))
	return pub
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
