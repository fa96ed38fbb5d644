// Package classification enforces the data-handling policy that applies to
// every message regardless of operation.
//
// Levels ascend public < internal < confidential < pii < secret. Two
// predicates advise collaborators: CanLog (false only for secret) and
// MustEncrypt (confidential, pii and secret). This package never logs or
// encrypts anything itself.
//
// The PII detector is a fixed table of RE2 patterns compiled once at package
// initialisation and read-only afterwards. Detection reports the distinct
// matches per type; Summary and Counts expose only counts, for contexts
// where echoing the matches would leak the data being flagged.
//
// Validate applies the three transmission rules to an assembled wire
// message:
//
//  1. PII found under any classification other than pii is rejected.
//  2. pii without pii_meta, or without a consent proof, is rejected.
//  3. secret across organisations is rejected.
package classification
