package message

import (
	"encoding/json"
	"fmt"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

// HelloPayload opens a handshake.
type HelloPayload struct {
	ProtocolVersions []string `json:"protocol_versions"`
	Capabilities     []string `json:"capabilities"`
	Extensions       []string `json:"extensions,omitempty"`
	MaxMessageSize   int      `json:"max_message_size,omitempty"`
	SupportedCls     []string `json:"supported_cls,omitempty"`
}

// VerifyPayload carries a challenge or the response to one.
type VerifyPayload struct {
	Challenge string `json:"challenge,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Response  string `json:"response,omitempty"`
}

// QueryPayload asks for information.
type QueryPayload struct {
	Domain         string         `json:"domain"`
	Intent         string         `json:"intent"`
	Params         map[string]any `json:"params"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

// Response statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
)

// RespondPayload answers a query or task.
type RespondPayload struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Schema string `json:"schema,omitempty"`
}

// Task actions and priorities.
const (
	TaskCreate   = "create"
	TaskStatus   = "status"
	TaskCancel   = "cancel"
	TaskComplete = "complete"

	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// TaskPayload delegates or manages work.
type TaskPayload struct {
	Action      string           `json:"action"`
	TaskID      string           `json:"task_id,omitempty"`
	Type        string           `json:"type,omitempty"`
	Description string           `json:"description,omitempty"`
	Params      map[string]any   `json:"params,omitempty"`
	Constraints map[string]any   `json:"constraints,omitempty"`
	Deadline    int64            `json:"deadline,omitempty"`
	Priority    string           `json:"priority,omitempty"`
	Callback    map[string]bool  `json:"callback,omitempty"`
	Subtasks    []map[string]any `json:"subtasks,omitempty"`
}

// StreamPayload frames one step of a stream.
type StreamPayload struct {
	Action      string   `json:"action"`
	StreamID    string   `json:"stream_id"`
	Type        string   `json:"type,omitempty"`
	Data        any      `json:"data,omitempty"`
	Seq         *int     `json:"seq,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	TotalChunks *int     `json:"total_chunks,omitempty"`
	Checksum    string   `json:"checksum,omitempty"`
}

// ToolPayload invokes or inspects a tool.
type ToolPayload struct {
	Action    string         `json:"action"`
	Tool      string         `json:"tool,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	TimeoutMs int64          `json:"timeout_ms,omitempty"`
}

// ConsentPayload negotiates PII consent.
type ConsentPayload struct {
	Action       string   `json:"action"`
	DataTypes    []string `json:"data_types"`
	Purpose      string   `json:"purpose"`
	Human        string   `json:"human,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	ConsentToken string   `json:"consent_token,omitempty"`
}

// ErrorPayload reports a failure to a peer.
type ErrorPayload struct {
	Code        string         `json:"code"`
	Category    string         `json:"category"`
	Message     string         `json:"message"`
	Recoverable bool           `json:"recoverable"`
	Field       string         `json:"field,omitempty"`
	Suggestion  map[string]any `json:"suggestion,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

// RegisterPayload is the directory control operation.
type RegisterPayload struct {
	Action  string         `json:"action"`
	Profile map[string]any `json:"profile,omitempty"`
	TTL     int64          `json:"ttl,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// ToPayload converts a payload struct into the generic keyed form.
func ToPayload(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Wrap(errs.CodeSchema, err, "encode payload")
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errs.Validation("p", "payload must encode to an object")
	}
	return out, nil
}

// DecodeInto fills out from a generic payload.
func DecodeInto(p map[string]any, out any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return errs.Wrap(errs.CodeSchema, err, "encode payload")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrap(errs.CodeSchema, err, "decode payload")
	}
	return nil
}

// DecodePayload returns the typed payload for m's operation, e.g.
// *QueryPayload for "query". Unknown operations yield the raw map.
func DecodePayload(m *Message) (any, error) {
	var out any
	switch m.Operation {
	case domain.OpHello:
		out = &HelloPayload{}
	case domain.OpVerify:
		out = &VerifyPayload{}
	case domain.OpQuery:
		out = &QueryPayload{}
	case domain.OpRespond:
		out = &RespondPayload{}
	case domain.OpTask:
		out = &TaskPayload{}
	case domain.OpStream:
		out = &StreamPayload{}
	case domain.OpTool:
		out = &ToolPayload{}
	case domain.OpConsent:
		out = &ConsentPayload{}
	case domain.OpError:
		out = &ErrorPayload{}
	case domain.OpRegister:
		out = &RegisterPayload{}
	default:
		return m.Payload, nil
	}
	if err := DecodeInto(m.Payload, out); err != nil {
		return nil, fmt.Errorf("%s payload: %w", m.Operation, err)
	}
	return out, nil
}

// Hello starts a handshake advertising caps.
func Hello(caps ...string) *Builder {
	if caps == nil {
		caps = []string{}
	}
	cls := make([]string, len(domain.Classifications))
	for i, c := range domain.Classifications {
		cls[i] = c.String()
	}
	return NewBuilder(domain.OpHello).WithTypedPayload(HelloPayload{
		ProtocolVersions: []string{domain.ProtocolVersion},
		Capabilities:     caps,
		MaxMessageSize:   MaxMessageSize,
		SupportedCls:     cls,
	})
}

// Query starts a query message.
func Query(topic, intent string, params map[string]any) *Builder {
	if params == nil {
		params = map[string]any{}
	}
	return NewBuilder(domain.OpQuery).WithTypedPayload(QueryPayload{Domain: topic, Intent: intent, Params: params})
}

// Respond starts a response message.
func Respond(status string, data any) *Builder {
	return NewBuilder(domain.OpRespond).WithTypedPayload(RespondPayload{Status: status, Data: data})
}

// Task starts a task message.
func Task(p TaskPayload) *Builder {
	return NewBuilder(domain.OpTask).WithTypedPayload(p)
}

// Stream starts a stream message.
func Stream(p StreamPayload) *Builder {
	return NewBuilder(domain.OpStream).WithTypedPayload(p)
}

// Tool starts a tool message.
func Tool(p ToolPayload) *Builder {
	return NewBuilder(domain.OpTool).WithTypedPayload(p)
}

// ConsentRequest starts a consent message.
func ConsentRequest(p ConsentPayload) *Builder {
	return NewBuilder(domain.OpConsent).WithTypedPayload(p)
}

// Error starts an error message from a protocol error.
func Error(e *errs.Error) *Builder {
	return NewBuilder(domain.OpError).WithPayload(e.Payload())
}
