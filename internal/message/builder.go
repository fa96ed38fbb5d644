package message

import (
	"errors"
	"slices"
	"time"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

// Builder assembles a Message. Each setter validates its own argument and
// records a failure immediately; Err exposes it right after the offending
// call. Setters return the builder so calls can be chained.
type Builder struct {
	msg     Message
	errs    []error
	hasFrom bool
	hasTo   bool
	now     func() time.Time
}

// NewBuilder starts a message for op, classified internal with an empty
// payload.
func NewBuilder(op domain.Operation) *Builder {
	b := &Builder{
		msg: Message{
			Version:        domain.ProtocolVersion,
			Operation:      op,
			Classification: domain.Internal,
			Payload:        map[string]any{},
		},
		now: time.Now,
	}
	if op == "" {
		b.fail("op", errs.MissingField("op"))
	}
	return b
}

// WithClock replaces the clock used for timestamps and relative expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// From sets the sender by name.
func (b *Builder) From(agent, org string) *Builder {
	return b.FromRef(domain.AgentRef{Agent: agent, Org: org})
}

// FromRef sets the sender, including any advertised keys.
func (b *Builder) FromRef(ref domain.AgentRef) *Builder {
	if err := ValidateAgentRef("from", ref); err != nil {
		return b.fail("from", err)
	}
	b.msg.Sender = ref
	b.hasFrom = true
	return b
}

// To sets the recipient by name.
func (b *Builder) To(agent, org string) *Builder {
	return b.ToRef(domain.AgentRef{Agent: agent, Org: org})
}

// ToRef sets the recipient.
func (b *Builder) ToRef(ref domain.AgentRef) *Builder {
	if err := ValidateAgentRef("to", ref); err != nil {
		return b.fail("to", err)
	}
	b.msg.Recipient = ref
	b.hasTo = true
	return b
}

// WithPayload replaces the payload. Nil means an empty payload.
func (b *Builder) WithPayload(p map[string]any) *Builder {
	if p == nil {
		p = map[string]any{}
	}
	if err := CheckDepth(p); err != nil {
		return b.fail("withPayload", err)
	}
	b.msg.Payload = p
	return b
}

// WithTypedPayload converts one of the operation payload structs.
func (b *Builder) WithTypedPayload(v any) *Builder {
	p, err := ToPayload(v)
	if err != nil {
		return b.fail("withPayload", err)
	}
	return b.WithPayload(p)
}

// ClassifiedAs sets the classification.
func (b *Builder) ClassifiedAs(c domain.Classification) *Builder {
	if !c.Valid() {
		return b.fail("classifiedAs", errs.Validation("cls", "unknown classification %q", c))
	}
	b.msg.Classification = c
	return b
}

// InReplyTo references an earlier message. Whether id was really issued
// is for the caller to check.
func (b *Builder) InReplyTo(id domain.MessageID) *Builder {
	if id == "" {
		return b.fail("inReplyTo", errs.Validation("re", "reply reference is empty"))
	}
	b.msg.ReplyTo = id
	return b
}

// ExpiresAt sets an absolute expiry, which must lie in the future.
func (b *Builder) ExpiresAt(t time.Time) *Builder {
	if !t.After(b.now()) {
		return b.fail("expiresAt", errs.Validation("exp", "expiry %s is not in the future", t.UTC().Format(time.RFC3339)))
	}
	b.msg.Expires = t.UnixMilli()
	return b
}

// ExpiresIn sets the expiry relative to now.
func (b *Builder) ExpiresIn(d time.Duration) *Builder {
	if d <= 0 {
		return b.fail("expiresIn", errs.Validation("exp", "expiry duration must be positive, got %s", d))
	}
	b.msg.Expires = b.now().Add(d).UnixMilli()
	return b
}

// RequiresCapabilities lists capabilities the recipient must hold.
func (b *Builder) RequiresCapabilities(caps ...string) *Builder {
	if len(caps) == 0 {
		return b.fail("requiresCapabilities", errs.Validation("cap", "no capabilities given"))
	}
	for _, c := range caps {
		if c == "" {
			return b.fail("requiresCapabilities", errs.Validation("cap", "capability names must not be empty"))
		}
	}
	b.msg.Capabilities = append([]string(nil), caps...)
	return b
}

// WithPII attaches a PII disclosure record and classifies the message pii.
func (b *Builder) WithPII(types []string, consent domain.Consent, maskFields ...string) *Builder {
	if len(types) == 0 {
		return b.fail("withPII", errs.Validation("pii_meta.types", "at least one pii type is required"))
	}
	if consent.Proof == "" {
		return b.fail("withPII", errs.Consent("consent proof is required"))
	}
	b.msg.PIIMeta = &domain.PIIMeta{
		Types:      append([]string(nil), types...),
		Consent:    consent,
		MaskFields: maskFields,
	}
	b.msg.Classification = domain.PII
	return b
}

// WithExtension stores data under a namespaced key in "ext".
func (b *Builder) WithExtension(namespace string, data any) *Builder {
	if namespace == "" {
		return b.fail("withExtension", errs.Validation("ext", "extension namespace is empty"))
	}
	if b.msg.Extensions == nil {
		b.msg.Extensions = map[string]any{}
	}
	b.msg.Extensions[namespace] = data
	return b
}

// Err returns the failures recorded so far, or nil.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// Build stamps the message with a fresh id and timestamp and validates it.
func (b *Builder) Build() (*Message, error) {
	if !b.hasFrom {
		b.fail("build", errs.Validation("from", "sender is required"))
	}
	if !b.hasTo {
		b.fail("build", errs.Validation("to", "recipient is required"))
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	m := b.msg
	m.Payload = cloneMap(b.msg.Payload)
	m.Extensions = cloneMap(b.msg.Extensions)
	m.Capabilities = slices.Clone(b.msg.Capabilities)
	if b.msg.PIIMeta != nil {
		meta := *b.msg.PIIMeta
		meta.Types = slices.Clone(meta.Types)
		meta.MaskFields = slices.Clone(meta.MaskFields)
		meta.Consent.Scope = slices.Clone(meta.Consent.Scope)
		m.PIIMeta = &meta
	}
	m.ID = NewID()
	m.Timestamp = b.now().UnixMilli()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (b *Builder) fail(setter string, err error) *Builder {
	if e, ok := errs.As(err); ok && e.Field == "" {
		e.Field = setter
	}
	b.errs = append(b.errs, err)
	return b
}

// cloneMap copies nested maps and slices so a built message shares no
// mutable state with its builder.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(x)
	default:
		return v
	}
}
