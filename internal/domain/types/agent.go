package types

// AgentRef names a protocol participant. Agent and Org are opaque names
// supplied by callers; Key and EncKey carry prefixed, base64-encoded public
// keys ("ed25519:..." and "x25519:...") when the sender chooses to include them.
type AgentRef struct {
	Agent  string `json:"agent"`
	Org    string `json:"org"`
	Key    string `json:"key,omitempty"`
	EncKey string `json:"enc_key,omitempty"`
}

// String returns "agent@org".
func (a AgentRef) String() string { return a.Agent + "@" + a.Org }

// IsZero reports whether no agent name was set.
func (a AgentRef) IsZero() bool { return a.Agent == "" && a.Org == "" }
