package types

// EnvelopeVersion is the "moltspeak" value of the transport wrapper.
const EnvelopeVersion = "0.1"

// AlgorithmBox names NaCl box: X25519 key agreement, XSalsa20-Poly1305 seal.
const AlgorithmBox = "x25519-xsalsa20-poly1305"

// EnvelopeHeader describes how the body is framed.
type EnvelopeHeader struct {
	Encrypted    bool   `json:"encrypted"`
	Compressed   bool   `json:"compressed,omitempty"`
	Encoding     string `json:"encoding,omitempty"`
	Algorithm    string `json:"algorithm,omitempty"`
	SenderPublic string `json:"sender_public,omitempty"`
	Nonce        string `json:"nonce,omitempty"`
}

// Envelope is the optional transport wrapper. Exactly one of Message and
// Ciphertext is set, depending on Header.Encrypted.
type Envelope struct {
	MoltSpeak  string         `json:"moltspeak"`
	Header     EnvelopeHeader `json:"envelope"`
	Message    *WireMessage   `json:"message,omitempty"`
	Ciphertext string         `json:"ciphertext,omitempty"`
}
