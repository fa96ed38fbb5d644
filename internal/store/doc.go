// Package store provides file-based persistence for the moltspeak CLI.
//
// The core message library never persists keys; only the command-line
// tool keeps state, under its home directory:
//   - identity.json.enc: the agent identity, sealed with a key derived
//     from the passphrase (scrypt, then XChaCha20-Poly1305).
//   - peers.json: public keys pinned for remote agents, which also serve
//     as a domain.KeyResolver.
//
// Writes go through a temp file and rename. All methods are safe for
// concurrent use.
package store
