package crypto

import (
	"runtime"

	"moltspeak/internal/domain"
)

// Wipe zeroes b. Best-effort: the noinline directive and KeepAlive keep the
// compiler from eliding the writes.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}

// WipeIdentity zeroes the private halves of id.
func WipeIdentity(id *domain.Identity) {
	if id == nil {
		return
	}
	Wipe(id.XPriv[:])
	Wipe(id.EdPriv[:])
}
