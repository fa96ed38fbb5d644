package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"

	"moltspeak/internal/domain"
)

// Prefixes tag key and signature strings with their algorithm.
const (
	PrefixEd25519 = "ed25519:"
	PrefixX25519  = "x25519:"
)

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// FromB64 decodes standard base64.
func FromB64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// EncodeSigningKey returns "ed25519:<base64>".
func EncodeSigningKey(pub domain.Ed25519Public) string { return PrefixEd25519 + B64(pub[:]) }

// EncodeEncryptionKey returns "x25519:<base64>".
func EncodeEncryptionKey(pub domain.X25519Public) string { return PrefixX25519 + B64(pub[:]) }

// EncodeSignature returns "ed25519:<base64>".
func EncodeSignature(sig []byte) string { return PrefixEd25519 + B64(sig) }

// ParseSigningKey decodes an Ed25519 public key. The prefix is optional.
func ParseSigningKey(s string) (pub domain.Ed25519Public, err error) {
	b, err := decodePrefixed(s, PrefixEd25519, len(pub))
	if err != nil {
		return pub, fmt.Errorf("signing key: %w", err)
	}
	copy(pub[:], b)
	return pub, nil
}

// ParseEncryptionKey decodes an X25519 public key. The prefix is optional.
func ParseEncryptionKey(s string) (pub domain.X25519Public, err error) {
	b, err := decodePrefixed(s, PrefixX25519, len(pub))
	if err != nil {
		return pub, fmt.Errorf("encryption key: %w", err)
	}
	copy(pub[:], b)
	return pub, nil
}

// ParseSignature decodes a signature string. The prefix is optional.
func ParseSignature(s string) ([]byte, error) {
	return decodePrefixed(s, PrefixEd25519, 0)
}

func decodePrefixed(s, prefix string, size int) ([]byte, error) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if s[:i+1] != prefix {
			return nil, fmt.Errorf("unexpected algorithm prefix %q", s[:i+1])
		}
		s = s[i+1:]
	}
	b, err := FromB64(s)
	if err != nil {
		return nil, err
	}
	if size > 0 && len(b) != size {
		return nil, fmt.Errorf("want %d bytes, got %d", size, len(b))
	}
	return b, nil
}
