package message

import (
	"bytes"
	"encoding/json"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

// ParseWire decodes a serialized wire message, rejecting malformed JSON
// and absent required fields before anything else looks at it.
func ParseWire(data []byte) (domain.WireMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return domain.WireMessage{}, errs.Wrap(errs.CodeParse, err, "decode message")
	}
	for _, name := range domain.RequiredWireFields {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return domain.WireMessage{}, errs.MissingField(name)
		}
	}
	if p := bytes.TrimSpace(fields["p"]); len(p) == 0 || p[0] != '{' {
		return domain.WireMessage{}, errs.Validation("p", "payload must be an object")
	}

	var w domain.WireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.WireMessage{}, errs.Wrap(errs.CodeParse, err, "decode message fields")
	}
	return w, nil
}

// EncodeWire serializes w compactly.
func EncodeWire(w domain.WireMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
