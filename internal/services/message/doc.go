// Package message runs the outbound and inbound message pipelines.
//
// Outbound, Prepare validates structure, size and classification policy,
// attaches the sender's public keys and signs the canonical form; Seal and
// Frame put the result in an envelope, encrypting whenever the
// classification requires it. Inbound, Accept opens and parses what
// arrived, re-checks everything, verifies the signature against the
// session's key (or the sender's published or advertised key) and applies
// the session's capability grant. Handshake accepts a hello and opens a
// session from it.
package message
