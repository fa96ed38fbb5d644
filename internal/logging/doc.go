// Package logging configures zerolog for the moltspeak binaries and adds
// message fields to log events without leaking payload data that a
// message's classification forbids writing down.
package logging
