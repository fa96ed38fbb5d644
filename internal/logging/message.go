package logging

import (
	"github.com/rs/zerolog"

	"moltspeak/internal/classification"
	"moltspeak/internal/domain"
)

// Message adds the routing fields of w to e. Payload content is never
// logged for secret messages; for everything else it is redacted first.
func Message(e *zerolog.Event, w domain.WireMessage) *zerolog.Event {
	e = e.
		Str("id", string(w.ID)).
		Str("op", string(w.Op)).
		Str("from", w.From.String()).
		Str("to", w.To.String()).
		Str("cls", string(w.Cls))
	if w.Re != "" {
		e = e.Str("re", string(w.Re))
	}
	if !classification.CanLog(w.Cls) {
		return e.Bool("payload_withheld", true)
	}
	if found := classification.DetectPayload(w.P); found.Any() {
		e = e.Str("pii", found.Summary())
	}
	return e
}

// Payload adds the redacted payload of w to e, or nothing when w's
// classification forbids logging.
func Payload(e *zerolog.Event, w domain.WireMessage) *zerolog.Event {
	if !classification.CanLog(w.Cls) {
		return e
	}
	return e.Interface("p", classification.RedactPayload(w.P))
}
