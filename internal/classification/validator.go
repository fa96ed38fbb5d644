package classification

import (
	"errors"
	"time"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

// Violations returns every policy violation in w, in rule order. An empty
// result means w may be transmitted.
func Violations(w domain.WireMessage, now time.Time) []*errs.Error {
	var out []*errs.Error
	if !w.Cls.Valid() {
		return append(out, errs.Validation("cls", "unknown classification %q", w.Cls))
	}

	if w.Cls != domain.PII {
		if found := DetectPayload(w.P); found.Any() {
			e := errs.Classification("pii detected under classification %q (%s)", w.Cls, found.Summary())
			e.Field = "p"
			out = append(out, e)
		}
	}

	if w.Cls == domain.PII {
		switch {
		case w.PIIMeta == nil:
			out = append(out, fieldErr(errs.Consent("pii classification requires pii_meta with consent"), "pii_meta"))
		case !w.PIIMeta.HasProof():
			out = append(out, fieldErr(errs.Consent("pii classification requires a consent proof"), "pii_meta.consent.proof"))
		case w.PIIMeta.Consent.Expires > 0 && now.UnixMilli() > w.PIIMeta.Consent.Expires:
			out = append(out, fieldErr(errs.Consent("consent expired"), "pii_meta.consent.expires"))
		}
	}

	if w.Cls == domain.Secret && w.From.Org != w.To.Org {
		e := errs.Classification("secret classification cannot cross organisations (%s -> %s)", w.From.Org, w.To.Org)
		e.Recoverable = false
		e.Field = "to.org"
		out = append(out, e)
	}
	return out
}

// Validate returns the first violation of w, or nil.
func Validate(w domain.WireMessage) error {
	return ValidateAt(w, time.Now())
}

// ValidateAt is Validate with an explicit clock.
func ValidateAt(w domain.WireMessage, now time.Time) error {
	v := Violations(w, now)
	if len(v) == 0 {
		return nil
	}
	return v[0]
}

// ValidateAll joins every violation of w.
func ValidateAll(w domain.WireMessage, now time.Time) error {
	v := Violations(w, now)
	all := make([]error, len(v))
	for i, e := range v {
		all[i] = e
	}
	return errors.Join(all...)
}

func fieldErr(e *errs.Error, field string) *errs.Error {
	e.Field = field
	return e
}
