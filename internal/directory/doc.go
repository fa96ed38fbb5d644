// Package directory talks to the agent directory over HTTP and provides an
// in-memory directory server for development and tests.
//
// The directory maps agent@org to a published signing key, an optional
// encryption key, an endpoint and a capability list. It is an external
// collaborator of the message core: the client implements
// domain.DirectoryClient and, through Resolve, domain.KeyResolver.
//
// HTTP API
//
//	POST   /agents                 register, returns {"id"}
//	GET    /agents?capability=&org=&q=&limit=
//	                               search, returns {"agents", "total"}
//	GET    /agents/{id}            fetch one record
//	POST   /agents/{id}/heartbeat  refresh last_seen
//	DELETE /agents/{id}            deregister
//
// All requests accept a context for cancellation and deadlines. Non-2xx
// statuses are returned as errors carrying the method, path and status; 429
// becomes a rate-limit error honouring Retry-After, and deadlines become
// timeout errors.
package directory
