// Package envelope frames wire messages for transport.
//
// A plaintext envelope carries the message object as-is. A sealed envelope
// carries base64 ciphertext produced by the crypto provider (NaCl box by
// default) together with the nonce and the sender's X25519 public key, and
// no message. Opening with the wrong key fails with E_AUTH_FAILED; no
// partially decoded data is ever returned.
package envelope
