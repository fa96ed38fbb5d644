// Package domain defines the protocol's shared data models and contracts.
//
// It contains plain types (wire records, agent references, identities,
// directory records) and interfaces only; behaviour lives in the packages
// that consume them. The types and interfaces subpackages hold the
// definitions, re-exported here as aliases for compact imports.
package domain
