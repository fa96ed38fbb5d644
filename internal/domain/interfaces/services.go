package interfaces

import (
	"context"

	domaintypes "moltspeak/internal/domain/types"
)

// IdentityService creates, retrieves, and inspects agent identities.
type IdentityService interface {
	GenerateIdentity(passphrase, agent, org string) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// MessageService runs the outbound and inbound message pipelines.
type MessageService interface {
	Prepare(
		ctx context.Context,
		wire domaintypes.WireMessage,
		id domaintypes.Identity,
	) (domaintypes.WireMessage, error)
	Seal(
		ctx context.Context,
		wire domaintypes.WireMessage,
		id domaintypes.Identity,
		recipient domaintypes.X25519Public,
	) (domaintypes.Envelope, error)
	Accept(
		ctx context.Context,
		raw []byte,
		id domaintypes.Identity,
	) (domaintypes.Inbound, error)
}
