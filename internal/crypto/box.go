package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/box"

	"moltspeak/internal/domain"
)

// ErrOpenFailed is returned when a box cannot be authenticated with the
// given keys. No plaintext is ever returned alongside it.
var ErrOpenFailed = errors.New("box open failed: wrong key or corrupted ciphertext")

// SealBox encrypts plaintext from sender to recipient with a fresh random
// nonce. The nonce is not prepended to the ciphertext.
func SealBox(
	plaintext []byte,
	recipient domain.X25519Public,
	sender domain.X25519Private,
) (ciphertext []byte, nonce [24]byte, err error) {
	if _, err = rand.Read(nonce[:]); err != nil {
		return nil, nonce, err
	}
	r := [32]byte(recipient)
	s := [32]byte(sender)
	ciphertext = box.Seal(nil, plaintext, &nonce, &r, &s)
	Wipe(s[:])
	return ciphertext, nonce, nil
}

// OpenBox authenticates and decrypts ciphertext sent by sender to recipient.
func OpenBox(
	ciphertext []byte,
	nonce [24]byte,
	sender domain.X25519Public,
	recipient domain.X25519Private,
) ([]byte, error) {
	s := [32]byte(sender)
	r := [32]byte(recipient)
	defer Wipe(r[:])
	out, ok := box.Open(nil, ciphertext, &nonce, &s, &r)
	if !ok {
		return nil, ErrOpenFailed
	}
	return out, nil
}
