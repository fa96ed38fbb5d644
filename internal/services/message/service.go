package message

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"moltspeak/internal/classification"
	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
	"moltspeak/internal/envelope"
	"moltspeak/internal/errs"
	"moltspeak/internal/logging"
	model "moltspeak/internal/message"
	"moltspeak/internal/metrics"
	"moltspeak/internal/services/session"
)

// Sessions is the part of *session.Manager the pipelines use.
type Sessions interface {
	Create(
		local, remote, remoteOrg string,
		remoteKey domain.Ed25519Public,
		opts ...session.CreateOption,
	) (*session.Session, error)
	GetForPeer(agent, org string) (*session.Session, bool)
}

// Service implements domain.MessageService.
type Service struct {
	provider domain.CryptoProvider
	sessions Sessions
	resolver domain.KeyResolver
	log      zerolog.Logger
	now      func() time.Time
	maxAge   time.Duration
	maxSize  int
	compress bool
}

// Option configures a Service.
type Option func(*Service)

// WithResolver looks up sender keys that are neither in a session nor
// carried by the message.
func WithResolver(r domain.KeyResolver) Option {
	return func(s *Service) { s.resolver = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxAge bounds the clock drift accepted on received timestamps.
func WithMaxAge(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithMaxSize bounds serialized messages in both directions.
func WithMaxSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithCompression gzips messages before sealing.
func WithCompression() Option {
	return func(s *Service) { s.compress = true }
}

// New constructs a message Service.
func New(provider domain.CryptoProvider, sessions Sessions, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		sessions: sessions,
		log:      zerolog.Nop(),
		now:      time.Now,
		maxAge:   model.DefaultMaxAge,
		maxSize:  model.MaxMessageSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Prepare validates w and signs it as id.
//
// Steps:
//  1. Check that id is the sender and attach its public keys to "from".
//  2. Run the structural checks and the size limit.
//  3. Apply the classification policy.
//  4. Sign the canonical form.
func (s *Service) Prepare(
	ctx context.Context,
	w domain.WireMessage,
	id domain.Identity,
) (out domain.WireMessage, err error) {
	defer func() { s.observe("outbound", w, err) }()
	if err := ctx.Err(); err != nil {
		return domain.WireMessage{}, err
	}

	w = w.Unsigned()
	if w.From.Agent != id.Agent || w.From.Org != id.Org {
		return domain.WireMessage{}, errs.Authentication(
			"sender %s does not match identity %s@%s", w.From, id.Agent, id.Org)
	}
	if err := attachKeys(&w.From, id); err != nil {
		return domain.WireMessage{}, err
	}

	if err := model.FromWire(w).Validate(); err != nil {
		return domain.WireMessage{}, err
	}
	raw, err := model.EncodeWire(w)
	if err != nil {
		return domain.WireMessage{}, errs.Wrap(errs.CodeInternal, err, "encode message")
	}
	if err := model.CheckSize(raw, s.maxSize); err != nil {
		return domain.WireMessage{}, err
	}
	if err := classification.ValidateAt(w, s.now()); err != nil {
		return domain.WireMessage{}, err
	}

	signed, err := crypto.SignWire(s.provider, w, id.EdPriv)
	if err != nil {
		return domain.WireMessage{}, errs.Wrap(errs.CodeInternal, err, "sign message")
	}
	metrics.MessagesPrepared.WithLabelValues(string(w.Op), string(w.Cls)).Inc()
	logging.Message(s.log.Debug(), signed).Msg("message prepared")
	return signed, nil
}

// Seal prepares w if it is not yet signed and encrypts it for recipient.
// A message that already carries a signature must pass the same checks as
// Prepare and verify against id's signing key.
func (s *Service) Seal(
	ctx context.Context,
	w domain.WireMessage,
	id domain.Identity,
	recipient domain.X25519Public,
) (domain.Envelope, error) {
	var err error
	if w.Sig == "" {
		w, err = s.Prepare(ctx, w, id)
	} else {
		err = s.checkSigned(ctx, w, id)
	}
	if err != nil {
		return domain.Envelope{}, err
	}
	var opts []envelope.SealOption
	if s.compress {
		opts = append(opts, envelope.WithCompression())
	}
	env, err := envelope.Seal(s.provider, w, recipient, id.XPriv, opts...)
	if err != nil {
		s.observe("outbound", w, err)
		return domain.Envelope{}, err
	}
	metrics.MessagesSealed.WithLabelValues(string(w.Op)).Inc()
	return env, nil
}

// checkSigned applies the outbound checks to a message signed elsewhere
// without touching its fields.
func (s *Service) checkSigned(ctx context.Context, w domain.WireMessage, id domain.Identity) (err error) {
	defer func() { s.observe("outbound", w, err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.From.Agent != id.Agent || w.From.Org != id.Org {
		return errs.Authentication("sender %s does not match identity %s@%s", w.From, id.Agent, id.Org)
	}
	from := w.From
	if err := attachKeys(&from, id); err != nil {
		return err
	}
	if err := model.FromWire(w).Validate(); err != nil {
		return err
	}
	raw, err := model.EncodeWire(w)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "encode message")
	}
	if err := model.CheckSize(raw, s.maxSize); err != nil {
		return err
	}
	if err := classification.ValidateAt(w, s.now()); err != nil {
		return err
	}
	if !crypto.VerifyWire(s.provider, w, id.EdPub) {
		return errs.Signature("message %s is not signed by %s@%s", w.ID, id.Agent, id.Org)
	}
	return nil
}

// Frame prepares w and serializes it for transport. Classifications that
// require encryption are sealed for the recipient's key, taken from
// recipient or from w.To.EncKey; without one, Frame refuses.
func (s *Service) Frame(
	ctx context.Context,
	w domain.WireMessage,
	id domain.Identity,
	recipient *domain.X25519Public,
) ([]byte, error) {
	if recipient == nil && w.To.EncKey != "" {
		k, err := crypto.ParseEncryptionKey(w.To.EncKey)
		if err != nil {
			return nil, errs.Validation("to.enc_key", "%v", err)
		}
		recipient = &k
	}
	if recipient == nil && classification.MustEncrypt(w.Cls) {
		err := errs.Classification("%s messages must be encrypted but no key is known for %s", w.Cls.Name(), w.To)
		s.observe("outbound", w, err)
		return nil, err
	}

	if recipient != nil {
		env, err := s.Seal(ctx, w, id, *recipient)
		if err != nil {
			return nil, err
		}
		return envelope.Encode(env)
	}
	signed, err := s.Prepare(ctx, w, id)
	if err != nil {
		return nil, err
	}
	return envelope.Encode(envelope.Wrap(signed))
}

// Accept runs the inbound pipeline on raw, a bare message or an envelope,
// addressed to id.
func (s *Service) Accept(ctx context.Context, raw []byte, id domain.Identity) (domain.Inbound, error) {
	in, _, _, err := s.accept(ctx, raw, id)
	return in, err
}

// Handshake accepts a hello from a peer and opens a session carrying the
// capabilities it advertised.
func (s *Service) Handshake(ctx context.Context, raw []byte, id domain.Identity) (*session.Session, error) {
	in, key, _, err := s.accept(ctx, raw, id)
	if err != nil {
		return nil, err
	}
	w := in.Wire
	if w.Op != domain.OpHello {
		err := errs.Validation("op", "handshake expects %q, got %q", domain.OpHello, w.Op)
		s.observe("inbound", w, err)
		return nil, err
	}
	var hello model.HelloPayload
	if err := model.DecodeInto(w.P, &hello); err != nil {
		return nil, err
	}
	if !anyCompatible(hello.ProtocolVersions) {
		e := errs.New(errs.CodeVersion, "no common protocol version in %v", hello.ProtocolVersions)
		e.Field = "p.protocol_versions"
		s.observe("inbound", w, e)
		return nil, e
	}

	sess, err := s.sessions.Create(id.Agent, w.From.Agent, w.From.Org, key,
		session.WithCapabilities(hello.Capabilities...))
	if err != nil {
		return nil, err
	}
	metrics.SessionsCreated.Inc()
	s.log.Info().
		Str("session", sess.ID().String()).
		Str("remote", w.From.String()).
		Strs("capabilities", sess.Capabilities()).
		Msg("handshake complete")
	return sess, nil
}

// accept returns the inbound record, the key the signature verified
// against and the matching session, if any.
//
// Steps:
//  1. Enforce the size limit, then open the envelope if there is one.
//  2. Parse, require every wire field and run the structural checks.
//  3. Check timestamp drift and expiry, and that we are the recipient.
//  4. Apply the classification policy.
//  5. Verify the signature over the received bytes.
//  6. Touch the session and check the capabilities the message claims.
func (s *Service) accept(
	ctx context.Context,
	raw []byte,
	id domain.Identity,
) (in domain.Inbound, key domain.Ed25519Public, sess *session.Session, err error) {
	defer func() { s.observe("inbound", in.Wire, err) }()
	if err = ctx.Err(); err != nil {
		return in, key, nil, err
	}
	if err = model.CheckSize(raw, s.maxSize); err != nil {
		return in, key, nil, err
	}

	body := raw
	if envelope.IsEnvelope(raw) {
		var env domain.Envelope
		if env, body, err = envelope.Decode(raw); err != nil {
			return in, key, nil, err
		}
		if env.Header.Encrypted {
			if body, err = envelope.OpenBytes(s.provider, env, id.XPriv); err != nil {
				return in, key, nil, err
			}
			in.Encrypted = true
		}
	}

	w, err := model.ParseWire(body)
	if err != nil {
		return in, key, nil, err
	}
	in.Wire = w
	m := model.FromWire(w)
	if err = m.Validate(); err != nil {
		return in, key, nil, err
	}
	now := s.now()
	if err = m.CheckFreshness(now, s.maxAge); err != nil {
		return in, key, nil, err
	}
	if w.To.Agent != id.Agent || w.To.Org != id.Org {
		err = errs.Validation("to", "message is addressed to %s, not %s@%s", w.To, id.Agent, id.Org)
		return in, key, nil, err
	}
	if err = classification.ValidateAt(w, now); err != nil {
		return in, key, nil, err
	}
	if classification.MustEncrypt(w.Cls) && !in.Encrypted {
		logging.Message(s.log.Warn(), w).Msg("received unencrypted message whose classification requires encryption")
	}

	if w.Sig == "" {
		err = errs.Signature("message %s is unsigned", w.ID)
		return in, key, nil, err
	}
	sess, key, err = s.senderKey(ctx, w.From)
	if err != nil {
		return in, key, nil, err
	}
	if !crypto.VerifyJSON(s.provider, body, w.Sig, key) {
		err = errs.Signature("signature from %s does not verify", w.From)
		return in, key, nil, err
	}
	in.Verified = true

	if sess != nil {
		sess.Touch()
		in.SessionID = sess.ID()
	}
	if len(w.Cap) > 0 {
		if sess == nil {
			err = errs.Capability(w.Cap...)
			return in, key, nil, err
		}
		if missing := sess.Missing(w.Cap); len(missing) > 0 {
			err = errs.Capability(missing...)
			return in, key, sess, err
		}
	}

	metrics.MessagesAccepted.WithLabelValues(string(w.Op), string(w.Cls)).Inc()
	logging.Message(s.log.Debug(), w).Bool("encrypted", in.Encrypted).Msg("message accepted")
	return in, key, sess, nil
}

// senderKey prefers the key pinned by a live session, then the key the
// resolver publishes, then the key the message carries. A session opened
// without a key does not pin one but is still returned.
func (s *Service) senderKey(ctx context.Context, from domain.AgentRef) (*session.Session, domain.Ed25519Public, error) {
	var sess *session.Session
	if s.sessions != nil {
		if found, ok := s.sessions.GetForPeer(from.Agent, from.Org); ok {
			sess = found
			if k := sess.RemotePublicKey(); !k.IsZero() {
				return sess, k, nil
			}
		}
	}
	if s.resolver != nil {
		ref, err := s.resolver.Resolve(ctx, from)
		if err != nil {
			return nil, domain.Ed25519Public{}, err
		}
		k, err := crypto.ParseSigningKey(ref.Key)
		if err != nil {
			return nil, domain.Ed25519Public{}, errs.Signature("published key for %s is unusable: %v", from, err)
		}
		return sess, k, nil
	}
	if from.Key != "" {
		k, err := crypto.ParseSigningKey(from.Key)
		if err != nil {
			return nil, domain.Ed25519Public{}, errs.Validation("from.key", "%v", err)
		}
		return sess, k, nil
	}
	return nil, domain.Ed25519Public{}, errs.Signature("no public key known for %s", from)
}

func (s *Service) observe(direction string, w domain.WireMessage, err error) {
	if err == nil {
		return
	}
	code := errs.CodeOf(err)
	metrics.MessagesRejected.WithLabelValues(direction, string(code)).Inc()
	ev := s.log.Warn().Str("direction", direction).Str("code", string(code))
	if w.ID != "" {
		ev = ev.Str("id", string(w.ID)).Str("op", string(w.Op)).Str("from", w.From.String())
	}
	ev.Err(err).Msg("message rejected")
}

func attachKeys(ref *domain.AgentRef, id domain.Identity) error {
	sign := crypto.EncodeSigningKey(id.EdPub)
	enc := crypto.EncodeEncryptionKey(id.XPub)
	if ref.Key != "" && ref.Key != sign {
		return errs.Authentication("from.key does not match the signing identity")
	}
	if ref.EncKey != "" && ref.EncKey != enc {
		return errs.Authentication("from.enc_key does not match the signing identity")
	}
	ref.Key, ref.EncKey = sign, enc
	return nil
}

func anyCompatible(versions []string) bool {
	for _, v := range versions {
		if model.CompatibleVersion(v) {
			return true
		}
	}
	return false
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
