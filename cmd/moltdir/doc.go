// Package main runs the in-memory agent directory used by moltspeak during
// development and tests. Agents publish their public keys and capabilities
// here so peers can find them and verify their signatures.
//
// HTTP API
//
//	POST /agents
//	    Register {agent_name, org, public_key, encryption_key?, endpoint?,
//	    description?, capabilities?}. 201 with {id} for a new agent, 200 when
//	    the same agent re-registers with the same key, 409 for a different key.
//
//	GET /agents?capability=&org=&q=&limit=
//	    List matching agents, most recently seen first.
//
//	GET /agents/{id}
//	    Return one agent record.
//
//	POST /agents/{id}/heartbeat
//	    Refresh last_seen.
//
//	DELETE /agents/{id}
//	    Remove the registration.
//
//	GET /health, GET /metrics
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Responses are JSON. Non-2xx statuses carry {"error": "..."}.
//   - Requests are rate limited per client address; throttled clients get 429
//     with Retry-After.
//   - The default listen address is :8080 (MOLTSPEAK_DIRECTORY_ADDR or --addr).
//
// The directory only ever sees public keys. It is not a production registry.
package main
