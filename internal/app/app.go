package app

import (
	"errors"
	"sync"

	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
)

// ErrPassphraseRequired is returned when a command needs the private keys
// but no passphrase was given.
var ErrPassphraseRequired = errors.New("passphrase required (-p)")

// App is the per-invocation context shared by CLI commands. It unlocks the
// identity at most once and wipes it on Close.
type App struct {
	*Wire

	passphrase string

	mu     sync.Mutex
	id     domain.Identity
	loaded bool
}

func New(w *Wire, passphrase string) *App {
	return &App{Wire: w, passphrase: passphrase}
}

// Passphrase returns the passphrase given on the command line.
func (a *App) Passphrase() string { return a.passphrase }

// LoadIdentity unlocks the local identity.
func (a *App) LoadIdentity() (domain.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return a.id, nil
	}
	if a.passphrase == "" {
		return domain.Identity{}, ErrPassphraseRequired
	}
	id, err := a.IDs.LoadIdentity(a.passphrase)
	if err != nil {
		return domain.Identity{}, err
	}
	a.id, a.loaded = id, true
	return id, nil
}

// Close wipes any unlocked private keys.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		crypto.WipeIdentity(&a.id)
		a.loaded = false
	}
}
