package message_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
	"moltspeak/internal/message"
)

var fixedNow = time.UnixMilli(1700000000000)

func clock() time.Time { return fixedNow }

func nest(depth int) map[string]any {
	m := map[string]any{}
	for i := 1; i < depth; i++ {
		m = map[string]any{"n": m}
	}
	return m
}

func weatherQuery(t *testing.T) *message.Message {
	t.Helper()
	m, err := message.Query("weather", "forecast", map[string]any{"location": "Tokyo"}).
		WithClock(clock).
		From("alice", "acme").
		To("weather-bot", "acme").
		Build()
	require.NoError(t, err)
	return m
}

func TestBuild_StampsIDAndTimestamp(t *testing.T) {
	m := weatherQuery(t)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, fixedNow.UnixMilli(), m.Timestamp)
	assert.Equal(t, domain.ProtocolVersion, m.Version)
	assert.Equal(t, domain.Internal, m.Classification)
	assert.Nil(t, m.PIIMeta)
	assert.False(t, m.Signed())

	other := weatherQuery(t)
	assert.NotEqual(t, m.ID, other.ID)
}

func TestJSON_RoundTrip(t *testing.T) {
	m := weatherQuery(t)
	raw, err := m.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"cls":"int"`)
	assert.NotContains(t, string(raw), `"pii_meta"`)

	back, err := message.FromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, m.ToWire(), back.ToWire())
}

func TestBuilder_SetterErrorsAreImmediate(t *testing.T) {
	b := message.NewBuilder(domain.OpQuery).From("bad name!", "acme")
	err := b.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrSchema))
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, "from.agent", e.Field)

	long := strings.Repeat("a", message.MaxNameLength+1)
	assert.Error(t, message.NewBuilder(domain.OpQuery).To("bob", long).Err())
	assert.NoError(t, message.NewBuilder(domain.OpQuery).To("bob_2", "acme-corp").Err())

	assert.Error(t, message.NewBuilder(domain.OpQuery).ExpiresIn(0).Err())
	assert.Error(t, message.NewBuilder(domain.OpQuery).WithClock(clock).ExpiresAt(fixedNow.Add(-time.Second)).Err())
	assert.Error(t, message.NewBuilder(domain.OpQuery).RequiresCapabilities().Err())
	assert.Error(t, message.NewBuilder(domain.OpQuery).ClassifiedAs("restricted").Err())
	assert.Error(t, message.NewBuilder(domain.OpQuery).InReplyTo("").Err())
}

func TestBuild_RequiresSenderAndRecipient(t *testing.T) {
	_, err := message.Query("weather", "forecast", nil).From("alice", "acme").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient is required")

	_, err = message.Query("weather", "forecast", nil).To("bob", "acme").Build()
	assert.Contains(t, err.Error(), "sender is required")
}

func TestBuild_ExpiryAndCapabilities(t *testing.T) {
	m, err := message.Tool(message.ToolPayload{Action: "invoke", Tool: "search"}).
		WithClock(clock).
		From("alice", "acme").
		To("bob", "acme").
		ExpiresIn(time.Minute).
		RequiresCapabilities("tool.invoke").
		WithExtension("acme.trace", map[string]any{"span": "abc"}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, fixedNow.Add(time.Minute).UnixMilli(), m.Expires)
	assert.Equal(t, []string{"tool.invoke"}, m.Capabilities)
	assert.False(t, m.Expired(fixedNow))
	assert.True(t, m.Expired(fixedNow.Add(2*time.Minute)))
	assert.Contains(t, m.Extensions, "acme.trace")
}

func TestBuild_DoesNotShareStateWithBuilder(t *testing.T) {
	b := message.Query("weather", "forecast", map[string]any{"location": "Tokyo"}).
		WithClock(clock).
		From("alice", "acme").
		To("bob", "acme").
		WithExtension("acme.trace", map[string]any{"span": "abc"}).
		WithPII([]string{"email"}, domain.Consent{Proof: "consent:1", Purpose: "support"})
	m, err := b.Build()
	require.NoError(t, err)

	b.WithExtension("acme.trace", "changed").
		WithExtension("acme.other", 1).
		WithPII([]string{"phone"}, domain.Consent{Proof: "consent:2"})
	params := m.Payload["params"].(map[string]any)
	params["location"] = "Osaka"

	assert.Equal(t, map[string]any{"span": "abc"}, m.Extensions["acme.trace"])
	assert.NotContains(t, m.Extensions, "acme.other")
	assert.Equal(t, []string{"email"}, m.PIIMeta.Types)
	assert.Equal(t, "consent:1", m.PIIMeta.Consent.Proof)

	again, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", again.Payload["params"].(map[string]any)["location"])
}

func TestPayloadDepth(t *testing.T) {
	assert.Equal(t, 0, message.Depth("x"))
	assert.Equal(t, 1, message.Depth(map[string]any{}))
	assert.Equal(t, 60, message.Depth(nest(60)))

	assert.NoError(t, message.CheckDepth(nest(message.MaxPayloadDepth)))
	assert.Error(t, message.CheckDepth(nest(message.MaxPayloadDepth+1)))

	err := message.NewBuilder(domain.OpQuery).WithPayload(nest(60)).Err()
	assert.True(t, errors.Is(err, errs.ErrSchema))
}

func TestFromJSON_Failures(t *testing.T) {
	_, err := message.FromJSON([]byte(`{not json`))
	assert.True(t, errors.Is(err, errs.ErrParse))

	_, err = message.FromJSON([]byte(`{"v":"0.1","id":"x"}`))
	require.Error(t, err)
	e, _ := errs.As(err)
	assert.Equal(t, errs.CodeMissingField, e.Code)
	assert.Equal(t, "ts", e.Field)

	_, err = message.FromJSON([]byte(`{"v":"0.1","id":"x","ts":1,"op":"query","from":{"agent":"a","org":"o"},"to":null,"p":{},"cls":"pub"}`))
	assert.True(t, errors.Is(err, errs.ErrMissingField))

	_, err = message.FromJSON([]byte(`{"v":"0.1","id":"x","ts":1,"op":"query","from":{"agent":"a","org":"o"},"to":{"agent":"b","org":"o"},"p":[1],"cls":"pub"}`))
	assert.True(t, errors.Is(err, errs.ErrSchema))
}

func TestFromJSON_IgnoresUnknownFields(t *testing.T) {
	raw := `{"v":"0.1","id":"x","ts":1,"op":"query","from":{"agent":"a","org":"o"},"to":{"agent":"b","org":"o"},"p":{"domain":"d","intent":"i"},"cls":"pub","x-future":true}`
	m, err := message.FromJSON([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, domain.OpQuery, m.Operation)
	assert.Equal(t, "b@o", m.Recipient.String())
}

func TestValidate_Version(t *testing.T) {
	m := weatherQuery(t)
	m.Version = "0.2"
	assert.NoError(t, m.Validate())

	m.Version = "1.0"
	assert.True(t, errors.Is(m.Validate(), errs.ErrVersion))
	assert.True(t, message.CompatibleVersion("0"))
}

func TestValidate_PIIClassificationNeedsMeta(t *testing.T) {
	m := weatherQuery(t)
	m.Classification = domain.PII
	err := m.Validate()
	require.Error(t, err)
	e, _ := errs.As(err)
	assert.Equal(t, "pii_meta", e.Field)
}

func TestCheckFreshness(t *testing.T) {
	m := weatherQuery(t)
	assert.NoError(t, m.CheckFreshness(fixedNow.Add(time.Minute), 0))

	err := m.CheckFreshness(fixedNow.Add(6*time.Minute), message.DefaultMaxAge)
	assert.True(t, errors.Is(err, errs.ErrSchema))

	err = m.CheckFreshness(fixedNow.Add(-6*time.Minute), message.DefaultMaxAge)
	assert.True(t, errors.Is(err, errs.ErrSchema))

	m.Expires = fixedNow.Add(time.Second).UnixMilli()
	err = m.CheckFreshness(fixedNow.Add(2*time.Second), message.DefaultMaxAge)
	assert.True(t, errors.Is(err, errs.ErrTimeout))
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, message.CheckSize(make([]byte, 10), 0))
	err := message.CheckSize(make([]byte, message.MaxMessageSize+1), 0)
	assert.True(t, errors.Is(err, errs.ErrInvalidParam))
}

func TestReply_SwapsPartiesAndKeepsClassification(t *testing.T) {
	q, err := message.Query("accounts", "lookup", nil).
		WithClock(clock).
		FromRef(domain.AgentRef{Agent: "alice", Org: "acme"}).
		To("bob", "globex").
		ClassifiedAs(domain.Confidential).
		Build()
	require.NoError(t, err)

	r, err := q.Reply(domain.OpRespond).
		WithTypedPayload(message.RespondPayload{Status: message.StatusSuccess, Data: map[string]any{"n": 1}}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "bob@globex", r.Sender.String())
	assert.Equal(t, "alice@acme", r.Recipient.String())
	assert.Equal(t, q.ID, r.ReplyTo)
	assert.Equal(t, domain.Confidential, r.Classification)
}

func TestWithPII(t *testing.T) {
	err := message.NewBuilder(domain.OpQuery).WithPII([]string{"email"}, domain.Consent{GrantedBy: "u1"}).Err()
	assert.True(t, errors.Is(err, errs.ErrConsent))

	m, err := message.Query("crm", "lookup", map[string]any{"email": "alice@example.com"}).
		From("alice", "acme").
		To("bob", "acme").
		WithPII([]string{"email"}, domain.Consent{GrantedBy: "u1", Purpose: "support", Proof: "tok-1"}, "email").
		Build()
	require.NoError(t, err)
	assert.Equal(t, domain.PII, m.Classification)
	require.NotNil(t, m.PIIMeta)
	assert.Equal(t, []string{"email"}, m.PIIMeta.MaskFields)
}

func TestPayloadSchemas(t *testing.T) {
	cases := []struct {
		name string
		op   domain.Operation
		p    map[string]any
		ok   bool
	}{
		{"query", domain.OpQuery, map[string]any{"domain": "weather", "intent": "forecast"}, true},
		{"query missing intent", domain.OpQuery, map[string]any{"domain": "weather"}, false},
		{"task urgent", domain.OpTask, map[string]any{"action": "create", "priority": "urgent"}, true},
		{"task bad priority", domain.OpTask, map[string]any{"action": "create", "priority": "asap"}, false},
		{"stream error", domain.OpStream, map[string]any{"action": "error", "stream_id": "s1"}, true},
		{"stream bad progress", domain.OpStream, map[string]any{"action": "chunk", "stream_id": "s1", "progress": 1.5}, false},
		{"tool list", domain.OpTool, map[string]any{"action": "list"}, true},
		{"tool invoke without tool", domain.OpTool, map[string]any{"action": "invoke"}, false},
		{"consent verify", domain.OpConsent, map[string]any{"action": "verify", "data_types": []any{"email"}, "purpose": "x"}, true},
		{"verify empty", domain.OpVerify, map[string]any{}, false},
		{"respond", domain.OpRespond, map[string]any{"status": "partial"}, true},
		{"unknown op", domain.Operation("x-custom"), map[string]any{"anything": true}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := message.ValidatePayload(tc.op, tc.p)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrSchema))
		})
	}
}

func TestHelloAndErrorBuilders(t *testing.T) {
	h, err := message.Hello("query.weather").From("alice", "acme").To("bob", "acme").Build()
	require.NoError(t, err)
	p, err := message.DecodePayload(h)
	require.NoError(t, err)
	hello := p.(*message.HelloPayload)
	assert.Equal(t, []string{domain.ProtocolVersion}, hello.ProtocolVersions)
	assert.Equal(t, []string{"query.weather"}, hello.Capabilities)

	e, err := message.Error(errs.RateLimit(time.Second)).From("bob", "acme").To("alice", "acme").Build()
	require.NoError(t, err)
	p, err = message.DecodePayload(e)
	require.NoError(t, err)
	ep := p.(*message.ErrorPayload)
	assert.Equal(t, "E_RATE_LIMIT", ep.Code)
	assert.True(t, ep.Recoverable)
}

func TestDecodePayload_Query(t *testing.T) {
	p, err := message.DecodePayload(weatherQuery(t))
	require.NoError(t, err)
	q, ok := p.(*message.QueryPayload)
	require.True(t, ok)
	assert.Equal(t, "weather", q.Domain)
	assert.Equal(t, "Tokyo", q.Params["location"])
}
