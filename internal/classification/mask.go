package classification

import "strings"

// DefaultMaskChar replaces masked characters.
const DefaultMaskChar = '*'

// MaskSpan keeps the first and last character of span and masks the rest.
// Spans of four characters or fewer are masked entirely.
func MaskSpan(span string, maskChar rune) string {
	r := []rune(span)
	if len(r) <= 4 {
		return strings.Repeat(string(maskChar), len(r))
	}
	return string(r[0]) + strings.Repeat(string(maskChar), len(r)-2) + string(r[len(r)-1])
}

// Mask masks every detected span in text.
func Mask(text string) string {
	return MaskWith(text, DefaultMaskChar)
}

// MaskWith masks every detected span in text with maskChar.
func MaskWith(text string, maskChar rune) string {
	for _, p := range patterns {
		text = p.re.ReplaceAllStringFunc(text, func(m string) string {
			return MaskSpan(m, maskChar)
		})
	}
	return text
}

// Placeholder is the redaction token for t, e.g. "[REDACTED:EMAIL]".
func Placeholder(t PIIType) string {
	return "[REDACTED:" + strings.ToUpper(string(t)) + "]"
}

// Redact replaces every detected span with its typed placeholder. When
// only is non-empty, just those categories are redacted.
func Redact(text string, only ...PIIType) string {
	for _, p := range patterns {
		if len(only) > 0 && !contains(only, p.kind) {
			continue
		}
		text = p.re.ReplaceAllLiteralString(text, Placeholder(p.kind))
	}
	return text
}

// RedactPayload returns a deep copy of payload with every string value
// redacted. Integers that read as PII become redacted strings; other
// leaves are copied unchanged.
func RedactPayload(payload map[string]any) map[string]any {
	placeholder := func(kind PIIType, _ string) string { return Placeholder(kind) }
	out, _ := mapStrings(payload, func(s string) string { return Redact(s) }, placeholder).(map[string]any)
	return out
}

// MaskPayload returns a deep copy of payload with every string value masked.
func MaskPayload(payload map[string]any) map[string]any {
	mask := func(_ PIIType, digits string) string { return MaskSpan(digits, DefaultMaskChar) }
	out, _ := mapStrings(payload, Mask, mask).(map[string]any)
	return out
}

// MaskFields masks the named top-level fields of payload (pii_meta.mask_fields).
func MaskFields(payload map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if contains(fields, k) {
			if s, ok := v.(string); ok {
				out[k] = MaskSpan(s, DefaultMaskChar)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func mapStrings(v any, f func(string) string, num func(PIIType, string) string) any {
	switch t := v.(type) {
	case string:
		return f(t)
	case map[string]any:
		if t == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = mapStrings(child, f, num)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = mapStrings(child, f, num)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = f(s)
		}
		return out
	}
	if digits, ok := integerDigits(v); ok {
		if kind, pii := numericPII(digits); pii {
			return num(kind, digits)
		}
	}
	return v
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
