package moltspeak

import (
	"github.com/rs/zerolog"

	"moltspeak/internal/classification"
	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
	"moltspeak/internal/envelope"
	"moltspeak/internal/errs"
	"moltspeak/internal/message"
	messagesvc "moltspeak/internal/services/message"
	"moltspeak/internal/services/session"
)

type (
	Message        = message.Message
	Builder        = message.Builder
	WireMessage    = domain.WireMessage
	AgentRef       = domain.AgentRef
	Classification = domain.Classification
	Operation      = domain.Operation
	Consent        = domain.Consent
	PIIMeta        = domain.PIIMeta
	Envelope       = domain.Envelope
	Inbound        = domain.Inbound
	Identity       = domain.Identity
	CryptoProvider = domain.CryptoProvider
	KeyResolver    = domain.KeyResolver
	Detection      = classification.Detection
	PIIType        = classification.PIIType

	Error = errs.Error
	Code  = errs.Code

	Session        = session.Session
	SessionManager = session.Manager
	SessionOption  = session.Option
	CreateOption   = session.CreateOption

	Service       = messagesvc.Service
	ServiceOption = messagesvc.Option
)

const (
	ProtocolVersion = domain.ProtocolVersion

	Public       = domain.Public
	Internal     = domain.Internal
	Confidential = domain.Confidential
	PII          = domain.PII
	Secret       = domain.Secret
)

// Error sentinels for errors.Is.
var (
	ErrParse          = errs.ErrParse
	ErrVersion        = errs.ErrVersion
	ErrSchema         = errs.ErrSchema
	ErrSignature      = errs.ErrSignature
	ErrCapability     = errs.ErrCapability
	ErrConsent        = errs.ErrConsent
	ErrClassification = errs.ErrClassification
	ErrRateLimit      = errs.ErrRateLimit
	ErrTimeout        = errs.ErrTimeout
	ErrAuthFailed     = errs.ErrAuthFailed
)

// Builders.
var (
	NewBuilder     = message.NewBuilder
	Hello          = message.Hello
	Query          = message.Query
	Respond        = message.Respond
	Task           = message.Task
	Stream         = message.Stream
	Tool           = message.Tool
	ConsentRequest = message.ConsentRequest
	ErrorMessage   = message.Error
	FromWire       = message.FromWire
	FromJSON       = message.FromJSON
	DecodePayload  = message.DecodePayload
)

// Classification policy and pii utilities.
var (
	CanLog        = classification.CanLog
	MustEncrypt   = classification.MustEncrypt
	Validate      = classification.Validate
	Detect        = classification.Detect
	DetectPayload = classification.DetectPayload
	Mask          = classification.Mask
	Redact        = classification.Redact
	RedactPayload = classification.RedactPayload
)

// Sessions.
var (
	NewSessionManager = session.NewManager
	WithMaxSessions   = session.WithMaxSessions
	WithDefaultTTL    = session.WithDefaultTTL
	WithTTL           = session.WithTTL
	WithoutExpiry     = session.WithoutExpiry
	WithCapabilities  = session.WithCapabilities
)

// Envelopes.
var (
	Wrap   = envelope.Wrap
	Unwrap = envelope.Unwrap
	Encode = envelope.Encode
)

// NewProvider returns the NaCl provider. insecureTestCrypto swaps in a
// non-cryptographic stand-in for tests and logs a warning on log.
func NewProvider(insecureTestCrypto bool, log zerolog.Logger) CryptoProvider {
	return crypto.NewProvider(crypto.Options{InsecureTestCrypto: insecureTestCrypto, Logger: log})
}

// NewService returns the outbound and inbound message pipelines.
func NewService(p CryptoProvider, sessions *SessionManager, opts ...ServiceOption) *Service {
	return messagesvc.New(p, sessions, opts...)
}

// Service options.
var (
	WithResolver    = messagesvc.WithResolver
	WithLogger      = messagesvc.WithLogger
	WithMaxAge      = messagesvc.WithMaxAge
	WithCompression = messagesvc.WithCompression
)

// NewIdentity generates an in-memory identity for agent@org. Persisting it
// is up to the caller.
func NewIdentity(agent, org string) (Identity, error) {
	if err := message.ValidateName("agent", agent); err != nil {
		return Identity{}, err
	}
	if err := message.ValidateName("org", org); err != nil {
		return Identity{}, err
	}
	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		return Identity{}, err
	}
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		return Identity{}, err
	}
	return Identity{Agent: agent, Org: org, XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv}, nil
}

// Ref returns id as an AgentRef carrying its public keys.
func Ref(id Identity) AgentRef {
	return AgentRef{
		Agent:  id.Agent,
		Org:    id.Org,
		Key:    crypto.EncodeSigningKey(id.EdPub),
		EncKey: crypto.EncodeEncryptionKey(id.XPub),
	}
}

// Sign signs w with id's signing key.
func Sign(p CryptoProvider, w WireMessage, id Identity) (WireMessage, error) {
	return crypto.SignWire(p, w, id.EdPriv)
}

// Verify reports whether w carries a valid signature by key, an
// "ed25519:" public key string.
func Verify(p CryptoProvider, w WireMessage, key string) bool {
	pub, err := crypto.ParseSigningKey(key)
	if err != nil {
		return false
	}
	return crypto.VerifyWire(p, w, pub)
}

// Wipe zeroes id's private keys.
func Wipe(id *Identity) { crypto.WipeIdentity(id) }
