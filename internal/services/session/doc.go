// Package session tracks authenticated conversations with remote agents.
//
// A Manager owns every Session it creates. Sessions expire lazily: nothing
// runs in the background, and an expired session is dropped the next time
// it is looked up. When the manager is full, the least recently active
// session is evicted before a new one is admitted. Capabilities are fixed
// when the session is created; changing them takes a new handshake.
package session
