// Package commands defines the moltspeak CLI and wires dependencies for subcommands.
//
// Commands
//
//   - keygen       Create the local agent identity
//   - fingerprint  Print the identity fingerprint and public keys
//   - build        Build, sign and frame a message for a peer
//   - sign         Sign an existing message
//   - seal         Encrypt a signed message for a peer
//   - verify       Run the inbound pipeline on a received message
//   - handshake    Accept a hello and open a session
//   - inspect      Show a message without verifying it
//   - scan         Detect or redact PII in text or JSON
//   - peer         Pin and list peer keys
//   - register, search, heartbeat, deregister
//     Talk to an agent directory
//
// # Implementation
//
// The root command loads configuration, builds a logger and the dependency
// graph (stores, provider, services, directory client) before any
// subcommand runs, so handlers share one app context. Private keys are
// unlocked on demand with the passphrase and wiped when the command ends.
package commands
