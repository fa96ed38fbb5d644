package message

import (
	"regexp"

	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

// MaxNameLength bounds agent and organisation names.
const MaxNameLength = 256

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName checks an agent or organisation name.
func ValidateName(field, name string) error {
	switch {
	case name == "":
		return errs.Validation(field, "name is empty")
	case len(name) > MaxNameLength:
		return errs.Validation(field, "name exceeds %d characters", MaxNameLength)
	case !namePattern.MatchString(name):
		return errs.Validation(field, "name %q may only contain letters, digits, '_' and '-'", name)
	}
	return nil
}

// ValidateAgentRef checks both names of ref and, when present, that its
// keys decode.
func ValidateAgentRef(field string, ref domain.AgentRef) error {
	if err := ValidateName(field+".agent", ref.Agent); err != nil {
		return err
	}
	if err := ValidateName(field+".org", ref.Org); err != nil {
		return err
	}
	if ref.Key != "" {
		if _, err := crypto.ParseSigningKey(ref.Key); err != nil {
			return errs.Validation(field+".key", "%v", err)
		}
	}
	if ref.EncKey != "" {
		if _, err := crypto.ParseEncryptionKey(ref.EncKey); err != nil {
			return errs.Validation(field+".enc_key", "%v", err)
		}
	}
	return nil
}
