package envelope

import (
	"bytes"
	"encoding/json"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
	"moltspeak/internal/message"
)

const (
	encodingText   = "utf-8"
	encodingBase64 = "base64"
)

// Wrap frames w in a plaintext envelope.
func Wrap(w domain.WireMessage) domain.Envelope {
	return domain.Envelope{
		MoltSpeak: domain.EnvelopeVersion,
		Header:    domain.EnvelopeHeader{Encoding: encodingText},
		Message:   &w,
	}
}

// Unwrap returns the message of a plaintext envelope. Sealed envelopes are
// refused; use Open.
func Unwrap(env domain.Envelope) (domain.WireMessage, error) {
	if err := Validate(env); err != nil {
		return domain.WireMessage{}, err
	}
	if env.Header.Encrypted {
		return domain.WireMessage{}, errs.Authentication("envelope is encrypted; a decryption key is required")
	}
	return *env.Message, nil
}

// Validate checks the framing rules: a version, and either a message
// (plaintext) or ciphertext plus the metadata needed to open it.
func Validate(env domain.Envelope) error {
	if env.MoltSpeak == "" {
		return errs.MissingField("moltspeak")
	}
	if !message.CompatibleVersion(env.MoltSpeak) {
		e := errs.New(errs.CodeVersion, "unsupported envelope version %q", env.MoltSpeak)
		e.Field = "moltspeak"
		return e
	}
	h := env.Header
	if !h.Encrypted {
		if env.Message == nil {
			return errs.MissingField("message")
		}
		if env.Ciphertext != "" {
			return errs.Validation("ciphertext", "plaintext envelope must not carry ciphertext")
		}
		return nil
	}
	switch {
	case env.Message != nil:
		return errs.Validation("message", "encrypted envelope must not carry a plaintext message")
	case env.Ciphertext == "":
		return errs.MissingField("ciphertext")
	case h.Algorithm == "":
		return errs.MissingField("envelope.algorithm")
	case h.Algorithm != domain.AlgorithmBox:
		return errs.Validation("envelope.algorithm", "unsupported algorithm %q", h.Algorithm)
	case h.Nonce == "":
		return errs.MissingField("envelope.nonce")
	case h.SenderPublic == "":
		return errs.MissingField("envelope.sender_public")
	}
	return nil
}

// Encode serializes env compactly.
func Encode(env domain.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// IsEnvelope reports whether raw is an envelope rather than a bare message.
func IsEnvelope(raw []byte) bool {
	var probe map[string]json.RawMessage
	if json.Unmarshal(raw, &probe) != nil {
		return false
	}
	_, v := probe["moltspeak"]
	_, h := probe["envelope"]
	return v && h
}

// Decode parses an envelope and returns it along with the raw bytes of a
// plaintext message, which callers need for signature verification.
func Decode(raw []byte) (domain.Envelope, []byte, error) {
	var shape struct {
		MoltSpeak  string                `json:"moltspeak"`
		Header     domain.EnvelopeHeader `json:"envelope"`
		Message    json.RawMessage       `json:"message"`
		Ciphertext string                `json:"ciphertext"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return domain.Envelope{}, nil, errs.Wrap(errs.CodeParse, err, "decode envelope")
	}
	env := domain.Envelope{MoltSpeak: shape.MoltSpeak, Header: shape.Header, Ciphertext: shape.Ciphertext}
	var body []byte
	if m := bytes.TrimSpace(shape.Message); len(m) > 0 && !bytes.Equal(m, []byte("null")) {
		w, err := message.ParseWire(m)
		if err != nil {
			return domain.Envelope{}, nil, err
		}
		env.Message = &w
		body = m
	}
	if err := Validate(env); err != nil {
		return domain.Envelope{}, nil, err
	}
	return env, body, nil
}
