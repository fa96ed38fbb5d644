package message

import (
	"time"

	"moltspeak/internal/errs"
)

const (
	// MaxPayloadDepth bounds payload nesting.
	MaxPayloadDepth = 50
	// MaxMessageSize bounds a serialized message, in bytes.
	MaxMessageSize = 1 << 20
	// DefaultMaxAge is how far a received timestamp may drift from now.
	DefaultMaxAge = 5 * time.Minute
)

// Depth returns the nesting depth of v: scalars are 0, an object or array
// is one more than its deepest child.
func Depth(v any) int {
	d, _ := depth(v, -1)
	return d
}

// depth stops descending once limit is exceeded (limit < 0 means no limit).
func depth(v any, limit int) (int, bool) {
	if limit == 0 {
		switch v.(type) {
		case map[string]any, []any, []string, map[string]string:
			return 1, true
		}
		return 0, false
	}
	var children []any
	switch t := v.(type) {
	case map[string]any:
		children = make([]any, 0, len(t))
		for _, c := range t {
			children = append(children, c)
		}
	case []any:
		children = t
	case []string, map[string]string:
		return 1, false
	default:
		return 0, false
	}
	max := 0
	for _, c := range children {
		d, over := depth(c, limit-1)
		if over {
			return d + 1, true
		}
		if d > max {
			max = d
		}
	}
	return max + 1, false
}

// CheckDepth rejects payloads nested deeper than MaxPayloadDepth.
func CheckDepth(p map[string]any) error {
	if _, over := depth(p, MaxPayloadDepth); over {
		return errs.Validation("p", "payload nesting exceeds %d levels", MaxPayloadDepth)
	}
	return nil
}

// CheckSize rejects serialized messages larger than max bytes.
func CheckSize(raw []byte, max int) error {
	if max <= 0 {
		max = MaxMessageSize
	}
	if len(raw) > max {
		return errs.InvalidParam("size", "message is %d bytes, limit is %d", len(raw), max)
	}
	return nil
}

// CheckFreshness rejects timestamps further than maxAge from now in either
// direction, and messages whose expiry has passed.
func (m *Message) CheckFreshness(now time.Time, maxAge time.Duration) error {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	nowMs := now.UnixMilli()
	age := time.Duration(nowMs-m.Timestamp) * time.Millisecond
	switch {
	case age > maxAge:
		return errs.Validation("ts", "message is %s old, limit is %s", age.Truncate(time.Millisecond), maxAge)
	case -age > maxAge:
		return errs.Validation("ts", "message timestamp is %s in the future", (-age).Truncate(time.Millisecond))
	}
	if m.Expired(now) {
		return errs.Timeout("message %s expired", m.ID)
	}
	return nil
}
