package interfaces

import domaintypes "moltspeak/internal/domain/types"

// CryptoProvider performs the signing and sealing primitives. Exactly one
// provider is selected at startup; there is no runtime fallback.
type CryptoProvider interface {
	// Name identifies the backend in logs and diagnostics.
	Name() string
	// Secure is false only for the explicitly requested test stand-in.
	Secure() bool

	Sign(priv domaintypes.Ed25519Private, msg []byte) ([]byte, error)
	Verify(pub domaintypes.Ed25519Public, msg, sig []byte) bool

	Seal(
		plaintext []byte,
		recipient domaintypes.X25519Public,
		sender domaintypes.X25519Private,
	) (ciphertext []byte, nonce [24]byte, err error)
	Open(
		ciphertext []byte,
		nonce [24]byte,
		sender domaintypes.X25519Public,
		recipient domaintypes.X25519Private,
	) ([]byte, error)
}
