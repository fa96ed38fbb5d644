package errs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error is the base protocol failure.
type Error struct {
	Code        Code
	Message     string
	Recoverable bool

	// Field names the offending field or setter, when known.
	Field string
	// RetryAfter is set for rate-limit errors.
	RetryAfter time.Duration
	// Capabilities lists the missing capabilities for capability errors.
	Capabilities []string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Field != "" {
		b.WriteString(" [")
		b.WriteString(e.Field)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so sentinels compare equal to any
// error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrParse          = &Error{Code: CodeParse}
	ErrVersion        = &Error{Code: CodeVersion}
	ErrSchema         = &Error{Code: CodeSchema}
	ErrMissingField   = &Error{Code: CodeMissingField}
	ErrInvalidParam   = &Error{Code: CodeInvalidParam}
	ErrAuthFailed     = &Error{Code: CodeAuthFailed}
	ErrSignature      = &Error{Code: CodeSignature}
	ErrCapability     = &Error{Code: CodeCapability}
	ErrConsent        = &Error{Code: CodeConsent}
	ErrClassification = &Error{Code: CodeClassification}
	ErrRateLimit      = &Error{Code: CodeRateLimit}
	ErrTimeout        = &Error{Code: CodeTimeout}
	ErrTaskFailed     = &Error{Code: CodeTaskFailed}
	ErrInternal       = &Error{Code: CodeInternal}
)

// New returns an error with code's default recoverability.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Recoverable: code.Recoverable()}
}

// Wrap attaches cause to a new error with the given code.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Err = cause
	return e
}

// Validation reports a structural or schema failure. Not recoverable
// without the caller fixing the message.
func Validation(field, format string, args ...any) *Error {
	e := New(CodeSchema, format, args...)
	e.Field = field
	return e
}

// MissingField reports an absent required field.
func MissingField(field string) *Error {
	return &Error{Code: CodeMissingField, Field: field, Message: "required field missing"}
}

// InvalidParam reports a parameter outside its permitted range.
func InvalidParam(field, format string, args ...any) *Error {
	e := New(CodeInvalidParam, format, args...)
	e.Field = field
	return e
}

// Signature reports a failed signature verification.
func Signature(format string, args ...any) *Error {
	return New(CodeSignature, format, args...)
}

// Capability reports capabilities that are required but not held.
func Capability(missing ...string) *Error {
	return &Error{
		Code:         CodeCapability,
		Message:      "missing capabilities: " + strings.Join(missing, ", "),
		Capabilities: missing,
	}
}

// Consent reports PII without a valid consent record. Recoverable: the
// caller can obtain consent and resend.
func Consent(format string, args ...any) *Error {
	return New(CodeConsent, format, args...)
}

// Classification reports a data-handling policy violation such as PII
// under a non-pii classification.
func Classification(format string, args ...any) *Error {
	return New(CodeClassification, format, args...)
}

// RateLimit reports throttling; retry after the given delay.
func RateLimit(retryAfter time.Duration) *Error {
	return &Error{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limited, retry after %s", retryAfter),
		Recoverable: true,
		RetryAfter:  retryAfter,
	}
}

// Timeout reports an elapsed deadline or expiry.
func Timeout(format string, args ...any) *Error {
	return New(CodeTimeout, format, args...)
}

// Authentication reports a handshake, key or decryption failure.
func Authentication(format string, args ...any) *Error {
	return New(CodeAuthFailed, format, args...)
}

// Protocol reports a framing or parse failure.
func Protocol(format string, args ...any) *Error {
	return New(CodeParse, format, args...)
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns err's protocol code, or E_INTERNAL for foreign errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

// IsRecoverable reports whether err is a recoverable protocol error.
func IsRecoverable(err error) bool {
	e, ok := As(err)
	return ok && e.Recoverable
}
