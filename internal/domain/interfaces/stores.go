package interfaces

import domaintypes "moltspeak/internal/domain/types"

// IdentityStore persists an agent's long-term keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}
