// Package moltspeak is the SDK surface of the agent message protocol.
//
// A message is assembled with a Builder, checked against the classification
// policy, signed over its canonical JSON form and optionally sealed in an
// Envelope for its recipient. Receivers run the inverse pipeline with
// Service.Accept, which opens, validates and verifies a message and matches
// it to a live Session.
//
//	alice, _ := moltspeak.NewIdentity("alice", "acme")
//	m, err := moltspeak.Query("weather", "forecast", map[string]any{"location": "Tokyo"}).
//		From("alice", "acme").
//		To("bob", "acme").
//		Build()
//
// Errors are *Error values carrying a protocol code and a recoverable flag;
// compare them with errors.Is against the Err* sentinels.
package moltspeak
