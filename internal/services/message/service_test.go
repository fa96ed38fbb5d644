package message_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
	model "moltspeak/internal/message"
	"moltspeak/internal/services/message"
	"moltspeak/internal/services/session"
)

var fixedNow = time.UnixMilli(1700000000000)

func clock() time.Time { return fixedNow }

func newIdentity(t *testing.T, agent, org string) domain.Identity {
	t.Helper()
	xPriv, xPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	edPriv, edPub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	return domain.Identity{Agent: agent, Org: org, XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv}
}

func newService(opts ...message.Option) (*message.Service, *session.Manager) {
	sessions := session.NewManager(session.WithClock(clock))
	opts = append([]message.Option{message.WithClock(clock)}, opts...)
	return message.New(crypto.NaCl{}, sessions, opts...), sessions
}

func query(t *testing.T, b *model.Builder, from, to domain.Identity) domain.WireMessage {
	t.Helper()
	m, err := b.WithClock(clock).From(from.Agent, from.Org).To(to.Agent, to.Org).Build()
	require.NoError(t, err)
	return m.ToWire()
}

func weather() *model.Builder {
	return model.Query("weather", "forecast", map[string]any{"location": "Tokyo"})
}

func TestPrepareAndAccept_Plaintext(t *testing.T) {
	ctx := context.Background()
	alice, bob := newIdentity(t, "alice", "acme"), newIdentity(t, "weather-bot", "acme")
	sender, _ := newService()
	receiver, _ := newService()

	raw, err := sender.Frame(ctx, query(t, weather(), alice, bob), alice, nil)
	require.NoError(t, err)

	in, err := receiver.Accept(ctx, raw, bob)
	require.NoError(t, err)
	assert.True(t, in.Verified)
	assert.False(t, in.Encrypted)
	assert.Empty(t, in.SessionID)
	assert.Equal(t, domain.Internal, in.Wire.Cls)
	assert.Equal(t, crypto.EncodeSigningKey(alice.EdPub), in.Wire.From.Key)
}

func TestAccept_TamperedPayloadFailsSignature(t *testing.T) {
	ctx := context.Background()
	alice, bob := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme")
	svc, _ := newService()

	raw, err := svc.Frame(ctx, query(t, weather(), alice, bob), alice, nil)
	require.NoError(t, err)
	tampered := bytes.Replace(raw, []byte("Tokyo"), []byte("Osaka"), 1)

	_, err = svc.Accept(ctx, tampered, bob)
	assert.True(t, errors.Is(err, errs.ErrSignature))
}

func TestPrepare_RejectsForeignSender(t *testing.T) {
	alice, bob := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme")
	svc, _ := newService()

	_, err := svc.Prepare(context.Background(), query(t, weather(), alice, bob), bob)
	assert.True(t, errors.Is(err, errs.ErrAuthFailed))
}

func TestPrepare_AppliesClassificationPolicy(t *testing.T) {
	alice, bob := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme")
	svc, _ := newService()

	w := query(t, model.Query("crm", "lookup", map[string]any{"email": "carol@example.com"}), alice, bob)
	_, err := svc.Prepare(context.Background(), w, alice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrClassification))
	assert.True(t, errs.IsRecoverable(err))
}

func TestFrame_ConfidentialIsSealed(t *testing.T) {
	ctx := context.Background()
	alice, bob, eve := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme"), newIdentity(t, "eve", "acme")
	svc, _ := newService(message.WithCompression())

	w := query(t, weather().ClassifiedAs(domain.Confidential), alice, bob)
	_, err := svc.Frame(ctx, w, alice, nil)
	assert.True(t, errors.Is(err, errs.ErrClassification), "no recipient key, no plaintext fallback")

	w.To.EncKey = crypto.EncodeEncryptionKey(bob.XPub)
	raw, err := svc.Frame(ctx, w, alice, nil)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Tokyo")

	in, err := svc.Accept(ctx, raw, bob)
	require.NoError(t, err)
	assert.True(t, in.Encrypted)
	assert.True(t, in.Verified)
	assert.Equal(t, "Tokyo", in.Wire.P["params"].(map[string]any)["location"])

	_, err = svc.Accept(ctx, raw, eve)
	assert.True(t, errors.Is(err, errs.ErrAuthFailed))
}

func TestSeal_ChecksPresignedMessages(t *testing.T) {
	ctx := context.Background()
	alice, bob, mallory := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme"), newIdentity(t, "mallory", "evil")
	svc, _ := newService()

	signed, err := svc.Prepare(ctx, query(t, weather(), alice, bob), alice)
	require.NoError(t, err)
	raw, err := svc.Frame(ctx, signed, alice, &bob.XPub)
	require.NoError(t, err)
	in, err := svc.Accept(ctx, raw, bob)
	require.NoError(t, err)
	assert.True(t, in.Verified)

	forged := signed
	forged.Sig = "not-a-signature"
	_, err = svc.Frame(ctx, forged, alice, &bob.XPub)
	assert.True(t, errors.Is(err, errs.ErrSignature))

	tampered := signed
	tampered.P = map[string]any{"domain": "weather", "intent": "forecast", "params": map[string]any{"location": "Osaka"}}
	_, err = svc.Seal(ctx, tampered, alice, bob.XPub)
	assert.True(t, errors.Is(err, errs.ErrSignature))

	foreign, err := svc.Prepare(ctx, query(t, weather(), mallory, bob), mallory)
	require.NoError(t, err)
	_, err = svc.Seal(ctx, foreign, alice, bob.XPub)
	assert.True(t, errors.Is(err, errs.ErrAuthFailed))

	leaky := query(t, weather().ClassifiedAs(domain.Secret), alice, newIdentity(t, "bob", "globex"))
	leaky.P = map[string]any{"domain": "crm", "intent": "lookup", "params": map[string]any{"email": "carol@example.com"}}
	leaky.Sig = "not-a-signature"
	_, err = svc.Frame(ctx, leaky, alice, &bob.XPub)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrClassification))
}

func TestHandshake_PinsKeyAndGrantsCapabilities(t *testing.T) {
	ctx := context.Background()
	alice, bob := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme")
	aliceSvc, _ := newService()
	bobSvc, bobSessions := newService()

	hello, err := aliceSvc.Frame(ctx, query(t, model.Hello("query.weather"), alice, bob), alice, nil)
	require.NoError(t, err)
	sess, err := bobSvc.Handshake(ctx, hello, bob)
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.RemoteAgent())
	assert.Equal(t, alice.EdPub, sess.RemotePublicKey())
	assert.True(t, sess.HasCapability("query.weather"))

	// Claimed capability inside the grant.
	raw, err := aliceSvc.Frame(ctx, query(t, weather().RequiresCapabilities("query.weather"), alice, bob), alice, nil)
	require.NoError(t, err)
	in, err := bobSvc.Accept(ctx, raw, bob)
	require.NoError(t, err)
	assert.Equal(t, sess.ID(), in.SessionID)
	assert.Equal(t, uint64(1), sess.MessageCount())

	// Claimed capability outside it.
	raw, err = aliceSvc.Frame(ctx, query(t, weather().RequiresCapabilities("tool.invoke"), alice, bob), alice, nil)
	require.NoError(t, err)
	_, err = bobSvc.Accept(ctx, raw, bob)
	require.Error(t, err)
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeCapability, e.Code)
	assert.Equal(t, []string{"tool.invoke"}, e.Capabilities)

	// An impostor using alice's name but its own key is caught by the pinned key.
	mallory := newIdentity(t, "alice", "acme")
	raw, err = aliceSvc.Frame(ctx, query(t, weather(), mallory, bob), mallory, nil)
	require.NoError(t, err)
	_, err = bobSvc.Accept(ctx, raw, bob)
	assert.True(t, errors.Is(err, errs.ErrSignature))

	assert.Equal(t, 1, bobSessions.Len())
}

func TestHandshake_RequiresHello(t *testing.T) {
	ctx := context.Background()
	alice, bob := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme")
	svc, sessions := newService()

	raw, err := svc.Frame(ctx, query(t, weather(), alice, bob), alice, nil)
	require.NoError(t, err)
	_, err = svc.Handshake(ctx, raw, bob)
	assert.True(t, errors.Is(err, errs.ErrSchema))
	assert.Equal(t, 0, sessions.Len())
}

func TestAccept_Freshness(t *testing.T) {
	ctx := context.Background()
	alice, bob := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme")
	sender, _ := newService()
	late := message.New(crypto.NaCl{}, nil, message.WithClock(func() time.Time { return fixedNow.Add(10 * time.Minute) }))

	raw, err := sender.Frame(ctx, query(t, weather(), alice, bob), alice, nil)
	require.NoError(t, err)
	_, err = late.Accept(ctx, raw, bob)
	assert.True(t, errors.Is(err, errs.ErrSchema))

	raw, err = sender.Frame(ctx, query(t, weather().WithClock(clock).ExpiresIn(time.Second), alice, bob), alice, nil)
	require.NoError(t, err)
	slightlyLate := message.New(crypto.NaCl{}, nil, message.WithClock(func() time.Time { return fixedNow.Add(2 * time.Second) }))
	_, err = slightlyLate.Accept(ctx, raw, bob)
	assert.True(t, errors.Is(err, errs.ErrTimeout))
}

func TestAccept_WrongRecipient(t *testing.T) {
	ctx := context.Background()
	alice, bob, carol := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme"), newIdentity(t, "carol", "acme")
	svc, _ := newService()

	raw, err := svc.Frame(ctx, query(t, weather(), alice, bob), alice, nil)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, raw, carol)
	require.Error(t, err)
	e, _ := errs.As(err)
	assert.Equal(t, "to", e.Field)
}

func TestAccept_BareWireAndMalformed(t *testing.T) {
	ctx := context.Background()
	alice, bob := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme")
	svc, _ := newService()

	signed, err := svc.Prepare(ctx, query(t, weather(), alice, bob), alice)
	require.NoError(t, err)
	raw, err := model.EncodeWire(signed)
	require.NoError(t, err)
	in, err := svc.Accept(ctx, raw, bob)
	require.NoError(t, err)
	assert.True(t, in.Verified)

	_, err = svc.Accept(ctx, []byte(`{"v":"0.1"`), bob)
	assert.True(t, errors.Is(err, errs.ErrParse))

	unsigned, err := model.EncodeWire(signed.Unsigned())
	require.NoError(t, err)
	_, err = svc.Accept(ctx, unsigned, bob)
	assert.True(t, errors.Is(err, errs.ErrSignature))
}

type staticResolver struct{ key domain.Ed25519Public }

func (r staticResolver) Resolve(_ context.Context, ref domain.AgentRef) (domain.AgentRef, error) {
	ref.Key = crypto.EncodeSigningKey(r.key)
	return ref, nil
}

func TestAccept_ResolverIsPreferredOverCarriedKey(t *testing.T) {
	ctx := context.Background()
	alice, bob, mallory := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme"), newIdentity(t, "alice", "acme")
	sender, _ := newService()
	receiver, _ := newService(message.WithResolver(staticResolver{key: alice.EdPub}))

	raw, err := sender.Frame(ctx, query(t, weather(), alice, bob), alice, nil)
	require.NoError(t, err)
	_, err = receiver.Accept(ctx, raw, bob)
	require.NoError(t, err)

	raw, err = sender.Frame(ctx, query(t, weather(), mallory, bob), mallory, nil)
	require.NoError(t, err)
	_, err = receiver.Accept(ctx, raw, bob)
	assert.True(t, errors.Is(err, errs.ErrSignature))
}

func TestRejectionsAreLoggedWithoutPayload(t *testing.T) {
	var logs bytes.Buffer
	alice, bob := newIdentity(t, "alice", "acme"), newIdentity(t, "bob", "acme")
	svc, _ := newService(message.WithLogger(zerolog.New(&logs)))

	w := query(t, model.Query("crm", "lookup", map[string]any{"email": "carol@example.com"}), alice, bob)
	_, err := svc.Prepare(context.Background(), w, alice)
	require.Error(t, err)
	assert.Contains(t, logs.String(), "E_CLASSIFICATION")
	assert.NotContains(t, logs.String(), "carol@example.com")
}
