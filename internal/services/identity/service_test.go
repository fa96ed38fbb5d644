package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moltspeak/internal/crypto"
	"moltspeak/internal/services/identity"
	"moltspeak/internal/store"
)

const passphrase = "Tr0ub4dor&3-horse"

func newService(t *testing.T) *identity.Service {
	t.Helper()
	s := store.NewIdentityFileStore(t.TempDir()).WithScrypt(store.ScryptParams{N: 1 << 10, R: 8, P: 1})
	return identity.New(s)
}

func TestGenerateAndLoad(t *testing.T) {
	svc := newService(t)

	id, fp, err := svc.GenerateIdentity(passphrase, "alice", "acme")
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Agent)
	assert.Equal(t, identity.Fingerprint(id), fp)
	assert.Equal(t, id.EdPub, crypto.Ed25519PublicOf(id.EdPriv))

	loaded, err := svc.LoadIdentity(passphrase)
	require.NoError(t, err)
	assert.Equal(t, id, loaded)

	got, err := svc.FingerprintIdentity(passphrase)
	require.NoError(t, err)
	assert.Equal(t, fp, got)

	ref := identity.Ref(id)
	assert.Equal(t, "alice@acme", ref.String())
	assert.Equal(t, crypto.EncodeEncryptionKey(id.XPub), ref.EncKey)
}

func TestGenerate_PolicyAndNames(t *testing.T) {
	svc := newService(t)

	_, _, err := svc.GenerateIdentity("short", "alice", "acme")
	assert.ErrorIs(t, err, identity.ErrWeakPassphrase)

	_, _, err = svc.GenerateIdentity("alllowercase-but-long1", "alice", "acme")
	assert.ErrorIs(t, err, identity.ErrWeakPassphrase)

	_, _, err = svc.GenerateIdentity(passphrase, "alice smith", "acme")
	assert.Error(t, err)
}
