package envelope

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
	"moltspeak/internal/message"
)

// SealOption adjusts Seal.
type SealOption func(*sealConfig)

type sealConfig struct {
	compress bool
}

// WithCompression gzips the serialized message before sealing it.
func WithCompression() SealOption {
	return func(c *sealConfig) { c.compress = true }
}

// Seal encrypts w for recipient and frames the result.
func Seal(
	p domain.CryptoProvider,
	w domain.WireMessage,
	recipient domain.X25519Public,
	sender domain.X25519Private,
	opts ...SealOption,
) (domain.Envelope, error) {
	var cfg sealConfig
	for _, o := range opts {
		o(&cfg)
	}
	plain, err := message.EncodeWire(w)
	if err != nil {
		return domain.Envelope{}, errs.Wrap(errs.CodeInternal, err, "encode message")
	}
	if cfg.compress {
		if plain, err = compress(plain); err != nil {
			return domain.Envelope{}, errs.Wrap(errs.CodeInternal, err, "compress message")
		}
	}
	ct, nonce, err := p.Seal(plain, recipient, sender)
	crypto.Wipe(plain)
	if err != nil {
		return domain.Envelope{}, errs.Wrap(errs.CodeInternal, err, "seal message")
	}
	return domain.Envelope{
		MoltSpeak: domain.EnvelopeVersion,
		Header: domain.EnvelopeHeader{
			Encrypted:    true,
			Compressed:   cfg.compress,
			Encoding:     encodingBase64,
			Algorithm:    domain.AlgorithmBox,
			SenderPublic: crypto.EncodeEncryptionKey(crypto.X25519PublicOf(sender)),
			Nonce:        crypto.B64(nonce[:]),
		},
		Ciphertext: crypto.B64(ct),
	}, nil
}

// OpenBytes decrypts a sealed envelope and returns the serialized message.
func OpenBytes(p domain.CryptoProvider, env domain.Envelope, recipient domain.X25519Private) ([]byte, error) {
	if err := Validate(env); err != nil {
		return nil, err
	}
	if !env.Header.Encrypted {
		return nil, errs.Validation("envelope.encrypted", "envelope is not encrypted")
	}
	senderPub, err := crypto.ParseEncryptionKey(env.Header.SenderPublic)
	if err != nil {
		return nil, errs.Wrap(errs.CodeSchema, err, "envelope sender_public")
	}
	rawNonce, err := crypto.FromB64(env.Header.Nonce)
	if err != nil || len(rawNonce) != 24 {
		return nil, errs.Validation("envelope.nonce", "nonce must be 24 bytes of base64")
	}
	var nonce [24]byte
	copy(nonce[:], rawNonce)
	ct, err := crypto.FromB64(env.Ciphertext)
	if err != nil {
		return nil, errs.Wrap(errs.CodeParse, err, "decode ciphertext")
	}
	plain, err := p.Open(ct, nonce, senderPub, recipient)
	if err != nil {
		return nil, errs.Wrap(errs.CodeAuthFailed, err, "cannot open envelope")
	}
	if env.Header.Compressed {
		out, err := decompress(plain)
		crypto.Wipe(plain)
		if err != nil {
			return nil, errs.Wrap(errs.CodeParse, err, "decompress message")
		}
		plain = out
	}
	return plain, nil
}

// Open decrypts a sealed envelope and parses the message inside.
func Open(p domain.CryptoProvider, env domain.Envelope, recipient domain.X25519Private) (domain.WireMessage, error) {
	plain, err := OpenBytes(p, env, recipient)
	if err != nil {
		return domain.WireMessage{}, err
	}
	return message.ParseWire(plain)
}

func compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, message.MaxMessageSize+1))
}
