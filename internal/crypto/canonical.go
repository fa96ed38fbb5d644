package crypto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"moltspeak/internal/domain"
)

var errNotObject = errors.New("canonical form requires a JSON object")

// Canonical returns the signing input for w: compact JSON, object keys
// sorted at every depth, "sig" removed.
func Canonical(w domain.WireMessage) ([]byte, error) {
	w.Sig = ""
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return CanonicalJSON(raw)
}

// CanonicalJSON canonicalises an already serialized message object. Unknown
// fields are kept so a receiver computes the same bytes as the sender even
// when it does not understand every field. Number literals are preserved.
func CanonicalJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonical: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	delete(obj, "sig")

	// encoding/json writes map keys in sorted order.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
