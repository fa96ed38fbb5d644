package errs_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moltspeak/internal/errs"
)

func TestTaxonomy_CodesAndRecoverability(t *testing.T) {
	cases := []struct {
		name        string
		err         *errs.Error
		code        errs.Code
		recoverable bool
	}{
		{"validation", errs.Validation("from", "bad name"), errs.CodeSchema, false},
		{"signature", errs.Signature("mismatch"), errs.CodeSignature, false},
		{"capability", errs.Capability("tool.invoke"), errs.CodeCapability, false},
		{"consent", errs.Consent("no proof"), errs.CodeConsent, true},
		{"rate limit", errs.RateLimit(2 * time.Second), errs.CodeRateLimit, true},
		{"timeout", errs.Timeout("expired"), errs.CodeTimeout, true},
		{"authentication", errs.Authentication("bad key"), errs.CodeAuthFailed, false},
		{"protocol", errs.Protocol("not json"), errs.CodeParse, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.recoverable, tc.err.Recoverable)
		})
	}
}

func TestIs_MatchesByCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("prepare: %w", errs.Consent("pii requires consent"))

	assert.True(t, errors.Is(err, errs.ErrConsent))
	assert.False(t, errors.Is(err, errs.ErrSchema))

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeConsent, e.Code)
	assert.True(t, errs.IsRecoverable(err))
	assert.Equal(t, errs.CodeInternal, errs.CodeOf(errors.New("foreign")))
}

func TestError_StringIncludesFieldAndCause(t *testing.T) {
	e := errs.Wrap(errs.CodeParse, errors.New("unexpected EOF"), "decode wire")
	assert.Equal(t, "E_PARSE: decode wire: unexpected EOF", e.Error())

	v := errs.Validation("to", "invalid agent name")
	assert.Equal(t, "E_SCHEMA [to]: invalid agent name", v.Error())
}

func TestCapability_ListsMissing(t *testing.T) {
	e := errs.Capability("a", "b")
	assert.Equal(t, []string{"a", "b"}, e.Capabilities)
	assert.Contains(t, e.Message, "a, b")
}

func TestPayload_RoundTrip(t *testing.T) {
	e := errs.RateLimit(1500 * time.Millisecond)
	p := e.Payload()

	assert.Equal(t, "E_RATE_LIMIT", p["code"])
	assert.Equal(t, "transport", p["category"])
	assert.Equal(t, true, p["recoverable"])
	assert.Equal(t, map[string]any{"action": "retry_after", "delay_ms": int64(1500)}, p["suggestion"])

	back := errs.FromPayload(p)
	assert.Equal(t, errs.CodeRateLimit, back.Code)
	assert.True(t, back.Recoverable)
}

func TestCode_Known(t *testing.T) {
	assert.True(t, errs.CodeTaskFailed.Known())
	assert.False(t, errs.Code("E_NOPE").Known())
	assert.Equal(t, errs.CategoryExecution, errs.Code("E_NOPE").Category())
}
