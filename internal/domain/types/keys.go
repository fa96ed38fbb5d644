package types

// Ed25519Public verifies message signatures. On the wire it is written
// "ed25519:<base64>".
type Ed25519Public [32]byte

// Ed25519Private signs outgoing messages; seed followed by public key.
type Ed25519Private [64]byte

// X25519Public is the key peers seal confidential messages to. On the wire
// it is written "x25519:<base64>".
type X25519Public [32]byte

// X25519Private opens envelopes sealed to the matching public key.
type X25519Private [32]byte

func (p Ed25519Public) Slice() []byte { return p[:] }
func (p X25519Public) Slice() []byte  { return p[:] }

// IsZero reports an unset key.
func (p Ed25519Public) IsZero() bool { return p == Ed25519Public{} }

// IsZero reports an unset key.
func (p X25519Public) IsZero() bool { return p == X25519Public{} }
