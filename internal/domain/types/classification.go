package types

import (
	"fmt"
	"strings"
)

// Classification is the mandatory sensitivity tag carried in "cls".
type Classification string

const (
	Public       Classification = "pub"
	Internal     Classification = "int"
	Confidential Classification = "conf"
	PII          Classification = "pii"
	Secret       Classification = "sec"
)

// Classifications lists every level in ascending sensitivity.
var Classifications = []Classification{Public, Internal, Confidential, PII, Secret}

// String returns the wire value.
func (c Classification) String() string { return string(c) }

// Rank orders levels: public < internal < confidential < pii < secret.
// Unknown values rank -1.
func (c Classification) Rank() int {
	for i, v := range Classifications {
		if v == c {
			return i
		}
	}
	return -1
}

// Valid reports whether c is one of the five wire values.
func (c Classification) Valid() bool { return c.Rank() >= 0 }

// Name returns the long, human-readable name of the level.
func (c Classification) Name() string {
	switch c {
	case Public:
		return "public"
	case Internal:
		return "internal"
	case Confidential:
		return "confidential"
	case PII:
		return "pii"
	case Secret:
		return "secret"
	}
	return string(c)
}

// ParseClassification accepts the wire value or the long name.
func ParseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pub", "public":
		return Public, nil
	case "int", "internal":
		return Internal, nil
	case "conf", "confidential":
		return Confidential, nil
	case "pii":
		return PII, nil
	case "sec", "secret":
		return Secret, nil
	}
	return "", fmt.Errorf("unknown classification %q", s)
}
