// Package errs defines the protocol error taxonomy shared by every layer.
//
// A single *Error type carries a machine-readable Code, a human message and
// a Recoverable flag. Constructors exist per failure kind:
//
//   - Validation      structural/schema failure (E_SCHEMA)
//   - MissingField    required wire field absent (E_MISSING_FIELD)
//   - InvalidParam    bad parameter value, e.g. oversized message (E_INVALID_PARAM)
//   - Signature       verification failed against the claimed key (E_SIGNATURE)
//   - Capability      required capability not held (E_CAPABILITY)
//   - Consent         PII without a valid consent record (E_CONSENT)
//   - Classification  data-handling policy violated (E_CLASSIFICATION)
//   - RateLimit       transient throttling, carries RetryAfter (E_RATE_LIMIT)
//   - Timeout         deadline or expiry passed (E_TIMEOUT)
//   - Authentication  handshake, key or decryption failure (E_AUTH_FAILED)
//   - Protocol        framing or parse failure (E_PARSE)
//
// Errors compare with errors.Is by code, so callers can match against the
// exported sentinels (ErrSchema, ErrConsent, ...) regardless of message.
// None of these values are sent to peers automatically; Payload converts an
// error into the body of an "error" operation when a caller chooses to reply.
package errs
