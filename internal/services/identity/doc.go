// Package identity manages creation, encryption and loading of the local
// agent identity.
//
// It enforces passphrase policy, generates Ed25519 and X25519 key pairs,
// and persists them via the domain.IdentityStore.
package identity
