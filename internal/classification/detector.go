package classification

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PIIType names a detectable category.
type PIIType string

const (
	Email      PIIType = "email"
	Phone      PIIType = "phone"
	SSN        PIIType = "ssn"
	CreditCard PIIType = "credit_card"
	IPv4       PIIType = "ipv4"
	BirthDate  PIIType = "dob"
)

type pattern struct {
	kind PIIType
	re   *regexp.Regexp
}

// patterns is applied in this order when masking or redacting, so that the
// longer digit groups are consumed before the phone pattern sees them.
var patterns = []pattern{
	{Email, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{CreditCard, regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)},
	{SSN, regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`)},
	{IPv4, regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
	{BirthDate, regexp.MustCompile(`\b(?:0?[1-9]|1[0-2])[-/](?:0?[1-9]|[12]\d|3[01])[-/](?:19|20)\d{2}\b`)},
	{Phone, regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)},
}

// Types lists the detectable categories in application order.
func Types() []PIIType {
	out := make([]PIIType, len(patterns))
	for i, p := range patterns {
		out[i] = p.kind
	}
	return out
}

// Detection maps each found category to its distinct matches.
type Detection map[PIIType][]string

// Any reports whether anything was found.
func (d Detection) Any() bool { return len(d) > 0 }

// Types returns the found categories, sorted.
func (d Detection) Types() []PIIType {
	out := make([]PIIType, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Counts returns the number of distinct matches per category.
func (d Detection) Counts() map[PIIType]int {
	out := make(map[PIIType]int, len(d))
	for k, v := range d {
		out[k] = len(v)
	}
	return out
}

// Summary renders counts only, e.g. "email=1 phone=2".
func (d Detection) Summary() string {
	parts := make([]string, 0, len(d))
	for _, k := range d.Types() {
		parts = append(parts, fmt.Sprintf("%s=%d", k, len(d[k])))
	}
	return strings.Join(parts, " ")
}

// Detect scans text with every pattern.
func Detect(text string) Detection {
	out := Detection{}
	for _, p := range patterns {
		matches := p.re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		seen := make(map[string]struct{}, len(matches))
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out[p.kind] = append(out[p.kind], m)
		}
	}
	return out
}

// ContainsPII reports whether text matches any pattern.
func ContainsPII(text string) bool {
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// DetectPayload scans the serialized text of a payload. String values and
// object keys go through the text patterns. Integer values are checked by
// width instead, so timestamps and sequence numbers are not read as phone
// numbers: Luhn-valid 15 to 19 digits are cards, 11 or 12 digits are
// phones and 9 digits with a plausible area and serial are SSNs.
func DetectPayload(payload any) Detection {
	v := normalize(payload)
	found := Detect(payloadText(v))
	walkNumbers(v, func(digits string) {
		if kind, ok := numericPII(digits); ok {
			found.add(kind, digits)
		}
	})
	return found
}

func (d Detection) add(kind PIIType, match string) {
	if contains(d[kind], match) {
		return
	}
	d[kind] = append(d[kind], match)
}

// integerDigits renders an integral JSON number without sign or exponent.
func integerDigits(v any) (string, bool) {
	var s string
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.Abs(n) >= 1e19 {
			return "", false
		}
		s = strconv.FormatFloat(n, 'f', 0, 64)
	case int:
		s = strconv.Itoa(n)
	case int64:
		s = strconv.FormatInt(n, 10)
	case uint64:
		s = strconv.FormatUint(n, 10)
	case json.Number:
		if _, err := n.Int64(); err != nil {
			return "", false
		}
		s = n.String()
	default:
		return "", false
	}
	return strings.TrimPrefix(s, "-"), true
}

func numericPII(digits string) (PIIType, bool) {
	switch n := len(digits); {
	case n >= 15 && n <= 19 && luhn(digits):
		return CreditCard, true
	case n == 11 || n == 12:
		return Phone, true
	case n == 9 && plausibleSSN(digits):
		return SSN, true
	}
	return "", false
}

func luhn(digits string) bool {
	sum, double := 0, false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			if d *= 2; d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func plausibleSSN(d string) bool {
	area, group, serial := d[:3], d[3:5], d[5:]
	return area != "000" && area != "666" && area[0] != '9' && group != "00" && serial != "0000"
}

func walkNumbers(v any, f func(string)) {
	switch t := v.(type) {
	case map[string]any:
		for _, child := range t {
			walkNumbers(child, f)
		}
	case []any:
		for _, child := range t {
			walkNumbers(child, f)
		}
	default:
		if digits, ok := integerDigits(t); ok {
			f(digits)
		}
	}
}

func payloadText(v any) string {
	var b strings.Builder
	collectStrings(&b, v)
	return b.String()
}

// normalize turns typed payload structs into generic JSON values.
func normalize(v any) any {
	switch v.(type) {
	case nil, string, map[string]any, []any:
		return v
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return string(raw)
	}
	return out
}

func collectStrings(b *strings.Builder, v any) {
	switch t := v.(type) {
	case string:
		b.WriteString(t)
		b.WriteByte('\n')
	case map[string]any:
		for k, child := range t {
			b.WriteString(k)
			b.WriteByte('\n')
			collectStrings(b, child)
		}
	case []any:
		for _, child := range t {
			collectStrings(b, child)
		}
	case []string:
		for _, s := range t {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	case map[string]string:
		for k, s := range t {
			b.WriteString(k)
			b.WriteByte('\n')
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}
}
