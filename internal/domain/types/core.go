package types

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// MessageID uniquely identifies a protocol message. It is never reused.
type MessageID string

// String returns the string form of the identifier.
func (id MessageID) String() string { return string(id) }

// SessionID identifies a session held by a session manager.
type SessionID string

// String returns the string form of the identifier.
func (id SessionID) String() string { return string(id) }

// DirectoryID identifies an agent record held by a directory.
type DirectoryID string

// String returns the string form of the identifier.
func (id DirectoryID) String() string { return string(id) }
