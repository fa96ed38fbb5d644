package classification

import "moltspeak/internal/domain"

// CanLog reports whether messages at c may be written to logs.
func CanLog(c domain.Classification) bool {
	return c != domain.Secret
}

// MustEncrypt reports whether messages at c require an encrypted envelope.
func MustEncrypt(c domain.Classification) bool {
	switch c {
	case domain.Confidential, domain.PII, domain.Secret:
		return true
	}
	return false
}

// AtLeast reports whether c is at least as sensitive as min.
func AtLeast(c, min domain.Classification) bool {
	return c.Rank() >= min.Rank()
}

// Max returns the more sensitive of a and b.
func Max(a, b domain.Classification) domain.Classification {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}
