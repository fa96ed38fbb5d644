package classification_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moltspeak/internal/classification"
	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

func wire(cls domain.Classification, payload map[string]any) domain.WireMessage {
	return domain.WireMessage{
		V:    domain.ProtocolVersion,
		ID:   "m-1",
		TS:   1700000000000,
		Op:   domain.OpQuery,
		From: domain.AgentRef{Agent: "alice", Org: "acme"},
		To:   domain.AgentRef{Agent: "bob", Org: "acme"},
		P:    payload,
		Cls:  cls,
	}
}

func consentMeta(proof string) *domain.PIIMeta {
	return &domain.PIIMeta{
		Types:   []string{"email"},
		Consent: domain.Consent{GrantedBy: "user-7", Purpose: "support", Proof: proof},
	}
}

func TestPolicyPredicates(t *testing.T) {
	cases := []struct {
		cls         domain.Classification
		canLog      bool
		mustEncrypt bool
	}{
		{domain.Public, true, false},
		{domain.Internal, true, false},
		{domain.Confidential, true, true},
		{domain.PII, true, true},
		{domain.Secret, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.cls.Name(), func(t *testing.T) {
			assert.Equal(t, tc.canLog, classification.CanLog(tc.cls))
			assert.Equal(t, tc.mustEncrypt, classification.MustEncrypt(tc.cls))
		})
	}
}

func TestLevelOrdering(t *testing.T) {
	for i := 1; i < len(domain.Classifications); i++ {
		lo, hi := domain.Classifications[i-1], domain.Classifications[i]
		assert.Less(t, lo.Rank(), hi.Rank())
		assert.True(t, classification.AtLeast(hi, lo))
		assert.Equal(t, hi, classification.Max(lo, hi))
	}
	c, err := domain.ParseClassification("confidential")
	require.NoError(t, err)
	assert.Equal(t, domain.Confidential, c)
	_, err = domain.ParseClassification("top-secret")
	assert.Error(t, err)
}

func TestDetect_Categories(t *testing.T) {
	cases := []struct {
		name string
		text string
		kind classification.PIIType
		want string
	}{
		{"email", "write to alice@example.com today", classification.Email, "alice@example.com"},
		{"phone", "call 555-123-4567", classification.Phone, "555-123-4567"},
		{"ssn", "ssn 123-45-6789", classification.SSN, "123-45-6789"},
		{"card", "card 4111-1111-1111-1111", classification.CreditCard, "4111-1111-1111-1111"},
		{"ipv4", "host 192.168.1.20 is up", classification.IPv4, "192.168.1.20"},
		{"dob", "born 04/17/1990", classification.BirthDate, "04/17/1990"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			found := classification.Detect(tc.text)
			require.True(t, found.Any())
			assert.Contains(t, found[tc.kind], tc.want)
		})
	}
}

func TestDetect_DistinctMatchesAndCountsOnly(t *testing.T) {
	found := classification.Detect("a@b.io a@b.io c@d.io")
	assert.Equal(t, []string{"a@b.io", "c@d.io"}, found[classification.Email])
	assert.Equal(t, 2, found.Counts()[classification.Email])
	assert.Equal(t, "email=2", found.Summary())
	assert.NotContains(t, found.Summary(), "a@b.io")
}

func TestDetect_CleanText(t *testing.T) {
	assert.False(t, classification.Detect("weather forecast for Tokyo").Any())
	assert.False(t, classification.ContainsPII("version 0.1 released 2024-01-15"))
}

func TestDetectPayload_Numbers(t *testing.T) {
	p := map[string]any{
		"timestamp": 1700000000000,
		"seconds":   1700000000,
		"seq":       5551234567,
		"ratio":     0.5,
		"note":      map[string]any{"contact": "bob@example.org"},
	}
	found := classification.DetectPayload(p)
	assert.Equal(t, []classification.PIIType{classification.Email}, found.Types())

	found = classification.DetectPayload(map[string]any{
		"card":  4111111111111111,
		"phone": float64(14155552671),
		"ssn":   []any{123456789},
		"order": 4111111111111112,
	})
	assert.Equal(t, []string{"4111111111111111"}, found[classification.CreditCard])
	assert.Equal(t, []string{"14155552671"}, found[classification.Phone])
	assert.Equal(t, []string{"123456789"}, found[classification.SSN])

	type typed struct {
		Who  string `json:"who"`
		Card int64  `json:"card"`
	}
	found = classification.DetectPayload(typed{Who: "carol@example.net", Card: 4111111111111111})
	assert.Equal(t, []classification.PIIType{classification.CreditCard, classification.Email}, found.Types())
}

func TestValidate_NumericCardUnderPublicBlocked(t *testing.T) {
	err := classification.Validate(wire(domain.Public, map[string]any{"card": float64(4111111111111111)}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrClassification))
	assert.Contains(t, err.Error(), "credit_card=1")
}

func TestRedactPayload_Numbers(t *testing.T) {
	in := map[string]any{"card": float64(378282246310005), "ts": float64(1700000000000)}
	out := classification.RedactPayload(in)
	assert.Equal(t, "[REDACTED:CREDIT_CARD]", out["card"])
	assert.Equal(t, float64(1700000000000), out["ts"])
	assert.Equal(t, "3*************5", classification.MaskPayload(in)["card"])
}

func TestMaskSpan(t *testing.T) {
	assert.Equal(t, "****", classification.MaskSpan("abcd", '*'))
	assert.Equal(t, "a***e", classification.MaskSpan("abcde", '*'))
	assert.Equal(t, "a###############m", classification.MaskSpan("alice@example.com", '#'))
}

func TestMaskAndRedact(t *testing.T) {
	text := "mail alice@example.com or 555-123-4567"
	assert.Equal(t, "mail a***************m or 5**********7", classification.Mask(text))
	assert.Equal(t, "mail [REDACTED:EMAIL] or [REDACTED:PHONE]", classification.Redact(text))
	assert.Equal(t, "mail [REDACTED:EMAIL] or 555-123-4567", classification.Redact(text, classification.Email))
}

func TestRedactPayload_DeepCopy(t *testing.T) {
	in := map[string]any{
		"user": map[string]any{"email": "alice@example.com", "age": 30},
		"list": []any{"192.168.0.1", 7},
	}
	out := classification.RedactPayload(in)

	assert.Equal(t, "[REDACTED:EMAIL]", out["user"].(map[string]any)["email"])
	assert.Equal(t, 30, out["user"].(map[string]any)["age"])
	assert.Equal(t, "[REDACTED:IPV4]", out["list"].([]any)[0])
	// Input untouched.
	assert.Equal(t, "alice@example.com", in["user"].(map[string]any)["email"])
}

func TestMaskFields(t *testing.T) {
	out := classification.MaskFields(map[string]any{"name": "Alice Smith", "city": "Oslo"}, []string{"name"})
	assert.Equal(t, "A*********h", out["name"])
	assert.Equal(t, "Oslo", out["city"])
}

func TestValidate_EmailUnderInternalBlocked(t *testing.T) {
	payload := map[string]any{"contact": "alice@example.com"}
	err := classification.Validate(wire(domain.Internal, payload))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrClassification))
	assert.True(t, errs.IsRecoverable(err))
	assert.NotContains(t, err.Error(), "alice@example.com")

	w := wire(domain.PII, payload)
	w.PIIMeta = consentMeta("consent-token-1")
	assert.NoError(t, classification.Validate(w))
}

func TestValidate_PIIRequiresConsentProof(t *testing.T) {
	w := wire(domain.PII, map[string]any{"contact": "alice@example.com"})
	err := classification.Validate(w)
	assert.True(t, errors.Is(err, errs.ErrConsent))

	w.PIIMeta = consentMeta("")
	err = classification.Validate(w)
	require.Error(t, err)
	e, _ := errs.As(err)
	assert.Equal(t, "pii_meta.consent.proof", e.Field)
	assert.True(t, e.Recoverable)
}

func TestValidate_ExpiredConsent(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	w := wire(domain.PII, map[string]any{})
	w.PIIMeta = consentMeta("tok")
	w.PIIMeta.Consent.Expires = now.Add(-time.Minute).UnixMilli()
	assert.True(t, errors.Is(classification.ValidateAt(w, now), errs.ErrConsent))

	w.PIIMeta.Consent.Expires = now.Add(time.Minute).UnixMilli()
	assert.NoError(t, classification.ValidateAt(w, now))
}

func TestValidate_SecretCrossOrgBlocked(t *testing.T) {
	w := wire(domain.Secret, map[string]any{"k": "v"})
	w.To.Org = "globex"
	err := classification.Validate(w)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrClassification))
	assert.False(t, errs.IsRecoverable(err))

	w.To.Org = "acme"
	assert.NoError(t, classification.Validate(w))
}

func TestValidate_UnknownClassification(t *testing.T) {
	err := classification.Validate(wire("restricted", map[string]any{}))
	assert.True(t, errors.Is(err, errs.ErrSchema))
}

func TestValidateAll_ReportsEveryRule(t *testing.T) {
	w := wire(domain.Secret, map[string]any{"contact": "alice@example.com"})
	w.To.Org = "globex"
	assert.Len(t, classification.Violations(w, time.Now()), 2)

	err := classification.ValidateAll(w, time.Now())
	assert.True(t, errors.Is(err, errs.ErrClassification))
}

func TestScenario_WeatherQueryPasses(t *testing.T) {
	w := wire(domain.Internal, map[string]any{
		"domain": "weather",
		"intent": "forecast",
		"params": map[string]any{"location": "Tokyo"},
	})
	assert.NoError(t, classification.Validate(w))
}
