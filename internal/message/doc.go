// Package message is the canonical in-memory model of a protocol message.
//
// A Message is assembled with a Builder, whose setters validate their own
// input at the call site and record a typed *errs.Error tagged with the
// setter name; Err reports it immediately and Build refuses to produce a
// message while any error is pending. Build also requires a sender and a
// recipient and runs the full structural check (Validate).
//
// ToWire produces the compact wire record, omitting unset optional fields.
// FromWire and FromJSON reconstruct a message without touching signatures:
// verification is a separate explicit step so an unverified message can
// still be inspected. For any valid m, FromWire(m.ToWire()) equals m.
//
// Payloads are keyed structures whose shape depends on the operation. Each
// known operation has a typed struct (QueryPayload, TaskPayload, ...) and a
// JSON schema in a dispatch table consulted by ValidatePayload. Unknown
// operations pass payload validation as long as the payload is an object.
package message
