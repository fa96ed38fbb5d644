package message

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

// payloadSchemaSources is the dispatch table from operation to payload
// shape. Additional properties are allowed everywhere so newer peers can
// extend payloads without breaking older ones.
var payloadSchemaSources = map[domain.Operation]string{
	domain.OpHello: `{
		"type": "object",
		"required": ["protocol_versions", "capabilities"],
		"properties": {
			"protocol_versions": {"type": "array", "minItems": 1, "items": {"type": "string"}},
			"capabilities": {"type": "array", "items": {"type": "string"}},
			"extensions": {"type": "array", "items": {"type": "string"}},
			"max_message_size": {"type": "integer", "minimum": 1},
			"supported_cls": {"type": "array", "items": {"enum": ["pub", "int", "conf", "pii", "sec"]}}
		}
	}`,
	domain.OpVerify: `{
		"type": "object",
		"anyOf": [{"required": ["challenge"]}, {"required": ["response"]}],
		"properties": {
			"challenge": {"type": "string", "minLength": 1},
			"timestamp": {"type": "integer"},
			"response": {"type": "string", "minLength": 1}
		}
	}`,
	domain.OpQuery: `{
		"type": "object",
		"required": ["domain", "intent"],
		"properties": {
			"domain": {"type": "string", "minLength": 1},
			"intent": {"type": "string", "minLength": 1},
			"params": {"type": "object"},
			"response_format": {"type": "object"}
		}
	}`,
	domain.OpRespond: `{
		"type": "object",
		"required": ["status"],
		"properties": {
			"status": {"enum": ["success", "partial", "error"]},
			"schema": {"type": "string"}
		}
	}`,
	domain.OpTask: `{
		"type": "object",
		"required": ["action"],
		"properties": {
			"action": {"enum": ["create", "status", "cancel", "complete"]},
			"task_id": {"type": "string"},
			"type": {"type": "string"},
			"description": {"type": "string"},
			"params": {"type": "object"},
			"constraints": {"type": "object"},
			"deadline": {"type": "integer"},
			"priority": {"enum": ["low", "normal", "high", "urgent"]},
			"callback": {"type": "object", "additionalProperties": {"type": "boolean"}},
			"subtasks": {"type": "array", "items": {"type": "object"}}
		}
	}`,
	domain.OpStream: `{
		"type": "object",
		"required": ["action", "stream_id"],
		"properties": {
			"action": {"enum": ["start", "chunk", "end", "error"]},
			"stream_id": {"type": "string", "minLength": 1},
			"type": {"type": "string"},
			"seq": {"type": "integer", "minimum": 0},
			"progress": {"type": "number", "minimum": 0, "maximum": 1},
			"total_chunks": {"type": "integer", "minimum": 0},
			"checksum": {"type": "string"}
		}
	}`,
	domain.OpTool: `{
		"type": "object",
		"required": ["action"],
		"anyOf": [
			{"properties": {"action": {"const": "list"}}},
			{"required": ["tool"]}
		],
		"properties": {
			"action": {"enum": ["invoke", "list", "describe"]},
			"tool": {"type": "string", "minLength": 1},
			"input": {"type": "object"},
			"timeout_ms": {"type": "integer", "minimum": 0}
		}
	}`,
	domain.OpConsent: `{
		"type": "object",
		"required": ["action", "data_types", "purpose"],
		"properties": {
			"action": {"enum": ["request", "grant", "revoke", "verify"]},
			"data_types": {"type": "array", "items": {"type": "string"}},
			"purpose": {"type": "string"},
			"human": {"type": "string"},
			"duration": {"type": "string"},
			"consent_token": {"type": "string"}
		}
	}`,
	domain.OpError: `{
		"type": "object",
		"required": ["code", "category", "message", "recoverable"],
		"properties": {
			"code": {"type": "string", "pattern": "^E_[A-Z_]+$"},
			"category": {"enum": ["protocol", "validation", "auth", "privacy", "transport", "execution"]},
			"message": {"type": "string"},
			"recoverable": {"type": "boolean"},
			"field": {"type": "string"},
			"suggestion": {"type": "object"},
			"context": {"type": "object"}
		}
	}`,
	domain.OpRegister: `{
		"type": "object",
		"required": ["action"],
		"properties": {
			"action": {"enum": ["create", "renew", "delete"]},
			"profile": {"type": "object"},
			"ttl": {"type": "integer", "minimum": 0},
			"reason": {"type": "string"}
		}
	}`,
}

var payloadSchemas = compileSchemas(payloadSchemaSources)

func compileSchemas(src map[domain.Operation]string) map[domain.Operation]*gojsonschema.Schema {
	out := make(map[domain.Operation]*gojsonschema.Schema, len(src))
	for op, s := range src {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
		if err != nil {
			panic(fmt.Sprintf("message: %s payload schema: %v", op, err))
		}
		out[op] = schema
	}
	return out
}

// HasSchema reports whether op has a registered payload shape.
func HasSchema(op domain.Operation) bool {
	_, ok := payloadSchemas[op]
	return ok
}

// ValidatePayload checks p against the shape registered for op.
func ValidatePayload(op domain.Operation, p map[string]any) error {
	schema, ok := payloadSchemas[op]
	if !ok {
		return nil
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return errs.Wrap(errs.CodeSchema, err, "encode %s payload", op)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errs.Wrap(errs.CodeSchema, err, "validate %s payload", op)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, re.String())
	}
	return errs.Validation("p", "invalid %s payload: %s", op, strings.Join(problems, "; "))
}
