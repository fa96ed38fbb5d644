package errs

// Payload converts e into the body of an "error" operation.
func (e *Error) Payload() map[string]any {
	p := map[string]any{
		"code":        string(e.Code),
		"category":    string(e.Code.Category()),
		"message":     e.Message,
		"recoverable": e.Recoverable,
	}
	if e.Field != "" {
		p["field"] = e.Field
	}
	switch e.Code {
	case CodeRateLimit:
		p["suggestion"] = map[string]any{"action": "retry_after", "delay_ms": e.RetryAfter.Milliseconds()}
	case CodeCapability:
		if len(e.Capabilities) > 0 {
			p["suggestion"] = map[string]any{"action": "request_capability", "capability": e.Capabilities[0]}
		}
	case CodeConsent:
		p["suggestion"] = map[string]any{"action": "request_consent"}
	}
	return p
}

// FromPayload rebuilds an *Error from a received "error" operation body.
// Unknown codes are kept verbatim.
func FromPayload(p map[string]any) *Error {
	e := &Error{}
	if c, ok := p["code"].(string); ok {
		e.Code = Code(c)
	}
	if m, ok := p["message"].(string); ok {
		e.Message = m
	}
	if r, ok := p["recoverable"].(bool); ok {
		e.Recoverable = r
	} else {
		e.Recoverable = e.Code.Recoverable()
	}
	if f, ok := p["field"].(string); ok {
		e.Field = f
	}
	return e
}
