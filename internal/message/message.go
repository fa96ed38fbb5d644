package message

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

// Message is a protocol message with descriptive field names. Timestamps
// are Unix milliseconds, as on the wire.
type Message struct {
	Version        string
	ID             domain.MessageID
	Timestamp      int64
	Operation      domain.Operation
	Sender         domain.AgentRef
	Recipient      domain.AgentRef
	Payload        map[string]any
	Classification domain.Classification
	Signature      string
	ReplyTo        domain.MessageID
	Expires        int64
	Capabilities   []string
	PIIMeta        *domain.PIIMeta
	Extensions     map[string]any
}

// NewID returns a fresh, time-ordered message identifier.
func NewID() domain.MessageID {
	return domain.MessageID(uuid.Must(uuid.NewV7()).String())
}

// ToWire returns the compact wire record.
func (m *Message) ToWire() domain.WireMessage {
	return domain.WireMessage{
		V:       m.Version,
		ID:      m.ID,
		TS:      m.Timestamp,
		Op:      m.Operation,
		From:    m.Sender,
		To:      m.Recipient,
		P:       m.Payload,
		Cls:     m.Classification,
		Sig:     m.Signature,
		Re:      m.ReplyTo,
		Exp:     m.Expires,
		Cap:     m.Capabilities,
		PIIMeta: m.PIIMeta,
		Ext:     m.Extensions,
	}
}

// FromWire reconstructs a message. It does not validate or verify.
func FromWire(w domain.WireMessage) *Message {
	return &Message{
		Version:        w.V,
		ID:             w.ID,
		Timestamp:      w.TS,
		Operation:      w.Op,
		Sender:         w.From,
		Recipient:      w.To,
		Payload:        w.P,
		Classification: w.Cls,
		Signature:      w.Sig,
		ReplyTo:        w.Re,
		Expires:        w.Exp,
		Capabilities:   w.Cap,
		PIIMeta:        w.PIIMeta,
		Extensions:     w.Ext,
	}
}

// FromJSON decodes a serialized wire message. Required fields must be
// present; unknown fields are ignored; the signature is not checked.
func FromJSON(data []byte) (*Message, error) {
	w, err := ParseWire(data)
	if err != nil {
		return nil, err
	}
	return FromWire(w), nil
}

// JSON serializes the wire form.
func (m *Message) JSON() ([]byte, error) {
	return EncodeWire(m.ToWire())
}

// Signed reports whether a signature is attached.
func (m *Message) Signed() bool { return m.Signature != "" }

// Expired reports whether the message's expiry has passed at now.
func (m *Message) Expired(now time.Time) bool {
	return m.Expires > 0 && now.UnixMilli() > m.Expires
}

// Time returns the creation time.
func (m *Message) Time() time.Time { return time.UnixMilli(m.Timestamp) }

// Reply starts a builder addressed back to m's sender, referencing m and
// keeping its classification.
func (m *Message) Reply(op domain.Operation) *Builder {
	b := NewBuilder(op).
		FromRef(domain.AgentRef{Agent: m.Recipient.Agent, Org: m.Recipient.Org}).
		ToRef(domain.AgentRef{Agent: m.Sender.Agent, Org: m.Sender.Org}).
		InReplyTo(m.ID)
	if m.Classification.Valid() {
		b.ClassifiedAs(m.Classification)
	}
	return b
}

// Validate checks the structural invariants of m: required fields, name
// format, classification value, pii_meta presence, payload depth and the
// payload shape for known operations. It does not apply the
// classification policy or verify the signature.
func (m *Message) Validate() error {
	switch {
	case m.Version == "":
		return errs.MissingField("v")
	case !CompatibleVersion(m.Version):
		e := errs.New(errs.CodeVersion, "unsupported protocol version %q", m.Version)
		e.Field = "v"
		return e
	case m.ID == "":
		return errs.MissingField("id")
	case m.Timestamp <= 0:
		return errs.MissingField("ts")
	case m.Operation == "":
		return errs.MissingField("op")
	}
	if err := ValidateAgentRef("from", m.Sender); err != nil {
		return err
	}
	if err := ValidateAgentRef("to", m.Recipient); err != nil {
		return err
	}
	if !m.Classification.Valid() {
		return errs.Validation("cls", "unknown classification %q", m.Classification)
	}
	if m.Classification == domain.PII && m.PIIMeta == nil {
		return errs.Validation("pii_meta", "pii classification requires pii_meta")
	}
	if m.Payload == nil {
		return errs.MissingField("p")
	}
	if err := CheckDepth(m.Payload); err != nil {
		return err
	}
	for _, c := range m.Capabilities {
		if c == "" {
			return errs.Validation("cap", "capability names must not be empty")
		}
	}
	return ValidatePayload(m.Operation, m.Payload)
}

// CompatibleVersion accepts any version sharing our major component.
func CompatibleVersion(v string) bool {
	return major(v) == major(domain.ProtocolVersion)
}

func major(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}
