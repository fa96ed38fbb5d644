package crypto

import (
	"moltspeak/internal/domain"
)

// SignWire returns a copy of w with "sig" set to the provider's signature
// over the canonical form.
func SignWire(p domain.CryptoProvider, w domain.WireMessage, priv domain.Ed25519Private) (domain.WireMessage, error) {
	msg, err := Canonical(w)
	if err != nil {
		return w, err
	}
	sig, err := p.Sign(priv, msg)
	if err != nil {
		return w, err
	}
	w.Sig = EncodeSignature(sig)
	return w, nil
}

// VerifyWire recomputes the canonical form of w and checks its signature
// against pub. It never returns an error: a missing, malformed or
// mismatched signature is simply false.
func VerifyWire(p domain.CryptoProvider, w domain.WireMessage, pub domain.Ed25519Public) bool {
	if w.Sig == "" {
		return false
	}
	msg, err := Canonical(w)
	if err != nil {
		return false
	}
	return verifyEncoded(p, msg, w.Sig, pub)
}

// VerifyJSON checks the signature embedded in a raw serialized message.
// Fields unknown to this implementation take part in the canonical form.
func VerifyJSON(p domain.CryptoProvider, raw []byte, sig string, pub domain.Ed25519Public) bool {
	if sig == "" {
		return false
	}
	msg, err := CanonicalJSON(raw)
	if err != nil {
		return false
	}
	return verifyEncoded(p, msg, sig, pub)
}

func verifyEncoded(p domain.CryptoProvider, msg []byte, sig string, pub domain.Ed25519Public) bool {
	raw, err := ParseSignature(sig)
	if err != nil {
		return false
	}
	return p.Verify(pub, msg, raw)
}
