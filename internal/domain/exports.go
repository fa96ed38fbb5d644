package domain

import (
	interfaces "moltspeak/internal/domain/interfaces"
	types "moltspeak/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Fingerprint       = types.Fingerprint
	MessageID         = types.MessageID
	SessionID         = types.SessionID
	DirectoryID       = types.DirectoryID
	AgentRef          = types.AgentRef
	Classification    = types.Classification
	Operation         = types.Operation
	Consent           = types.Consent
	PIIMeta           = types.PIIMeta
	WireMessage       = types.WireMessage
	Inbound           = types.Inbound
	Envelope          = types.Envelope
	EnvelopeHeader    = types.EnvelopeHeader
	Identity          = types.Identity
	AgentRegistration = types.AgentRegistration
	AgentRecord       = types.AgentRecord
	AgentQuery        = types.AgentQuery
	AgentList         = types.AgentList
	Heartbeat         = types.Heartbeat
	X25519Public      = types.X25519Public
	X25519Private     = types.X25519Private
	Ed25519Public     = types.Ed25519Public
	Ed25519Private    = types.Ed25519Private
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	CryptoProvider  = interfaces.CryptoProvider
	DirectoryClient = interfaces.DirectoryClient
	KeyResolver     = interfaces.KeyResolver
	IdentityStore   = interfaces.IdentityStore
	IdentityService = interfaces.IdentityService
	MessageService  = interfaces.MessageService
)

// Re-exported constants.
const (
	ProtocolVersion = types.ProtocolVersion
	EnvelopeVersion = types.EnvelopeVersion
	AlgorithmBox    = types.AlgorithmBox

	Public       = types.Public
	Internal     = types.Internal
	Confidential = types.Confidential
	PII          = types.PII
	Secret       = types.Secret

	OpHello    = types.OpHello
	OpVerify   = types.OpVerify
	OpQuery    = types.OpQuery
	OpRespond  = types.OpRespond
	OpTask     = types.OpTask
	OpStream   = types.OpStream
	OpTool     = types.OpTool
	OpConsent  = types.OpConsent
	OpError    = types.OpError
	OpRegister = types.OpRegister
)

// ParseClassification accepts a wire value or long level name.
var ParseClassification = types.ParseClassification

var (
	// Classifications lists every level in ascending sensitivity.
	Classifications = types.Classifications
	// RequiredWireFields must be present on every received message.
	RequiredWireFields = types.RequiredWireFields
)
