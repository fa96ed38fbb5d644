package types

// ProtocolVersion is the "v" value emitted by this implementation.
const ProtocolVersion = "0.1"

// RequiredWireFields must be present on every received message.
var RequiredWireFields = []string{"v", "id", "ts", "op", "from", "to", "p", "cls"}

// WireMessage is the canonical serialized record. Optional fields are
// omitted when unset; TS and Exp are Unix milliseconds.
type WireMessage struct {
	V       string         `json:"v"`
	ID      MessageID      `json:"id"`
	TS      int64          `json:"ts"`
	Op      Operation      `json:"op"`
	From    AgentRef       `json:"from"`
	To      AgentRef       `json:"to"`
	P       map[string]any `json:"p"`
	Cls     Classification `json:"cls"`
	Sig     string         `json:"sig,omitempty"`
	Re      MessageID      `json:"re,omitempty"`
	Exp     int64          `json:"exp,omitempty"`
	Cap     []string       `json:"cap,omitempty"`
	PIIMeta *PIIMeta       `json:"pii_meta,omitempty"`
	Ext     map[string]any `json:"ext,omitempty"`
}

// Unsigned returns a copy of w with the signature cleared.
func (w WireMessage) Unsigned() WireMessage {
	w.Sig = ""
	return w
}

// Inbound is the result of accepting a received message.
type Inbound struct {
	Wire      WireMessage `json:"wire"`
	SessionID SessionID   `json:"session_id,omitempty"`
	Verified  bool        `json:"verified"`
	Encrypted bool        `json:"encrypted"`
}
