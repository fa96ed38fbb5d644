package types

// Identity holds an agent's long-term signing and encryption keys.
type Identity struct {
	Agent  string         `json:"agent"`
	Org    string         `json:"org"`
	XPub   X25519Public   `json:"xpub"`
	XPriv  X25519Private  `json:"xpriv"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`
}
