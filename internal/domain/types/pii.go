package types

// Consent records a data subject's authorization to disclose PII.
// It is created once and never modified.
type Consent struct {
	GrantedBy string   `json:"granted_by"`
	Purpose   string   `json:"purpose"`
	Proof     string   `json:"proof"`
	Expires   int64    `json:"expires,omitempty"`
	Scope     []string `json:"scope,omitempty"`
}

// PIIMeta travels in "pii_meta" on pii-classified messages.
type PIIMeta struct {
	Types      []string `json:"types"`
	Consent    Consent  `json:"consent"`
	MaskFields []string `json:"mask_fields,omitempty"`
}

// HasProof reports whether the consent record carries a proof value.
func (m *PIIMeta) HasProof() bool {
	return m != nil && m.Consent.Proof != ""
}
