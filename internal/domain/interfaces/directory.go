package interfaces

import (
	"context"

	domaintypes "moltspeak/internal/domain/types"
)

// DirectoryClient talks to the external agent directory.
type DirectoryClient interface {
	Register(ctx context.Context, reg domaintypes.AgentRegistration) (domaintypes.DirectoryID, error)
	Get(ctx context.Context, id domaintypes.DirectoryID) (domaintypes.AgentRecord, error)
	Search(ctx context.Context, q domaintypes.AgentQuery) (domaintypes.AgentList, error)
	Heartbeat(ctx context.Context, id domaintypes.DirectoryID) (domaintypes.Heartbeat, error)
	Deregister(ctx context.Context, id domaintypes.DirectoryID) error
}

// KeyResolver maps an agent reference to its published signing key.
type KeyResolver interface {
	Resolve(ctx context.Context, ref domaintypes.AgentRef) (domaintypes.AgentRef, error)
}
