// Package crypto exposes the primitives used by moltspeak.
//
// Contents
//
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - X25519 key generation with RFC 7748 clamping (GenerateX25519)
//   - NaCl box sealing: X25519 key agreement + XSalsa20-Poly1305 (SealBox,
//     OpenBox). Ciphertext and nonce are returned as separate values.
//   - Canonical JSON of a wire message for signing (Canonical)
//   - Signing and verifying whole wire messages (SignWire, VerifyWire)
//   - Prefixed base64 key and signature strings ("ed25519:...", "x25519:...")
//   - Short public-key fingerprints for display/logging (Fingerprint)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Providers
//
// Higher layers use a domain.CryptoProvider chosen once at startup by
// NewProvider. The default is the NaCl provider. An insecure stand-in exists
// for constrained test environments only; it is returned solely when
// Options.InsecureTestCrypto is set, and it logs a warning on every use.
// Nothing probes the environment to pick a provider.
package crypto
