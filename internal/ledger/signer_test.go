package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEd25519Signer_GeneratesAndPersistsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing.key")
	s1, err := NewEd25519Signer(path)
	require.NoError(t, err)

	s2, err := NewEd25519Signer(path)
	require.NoError(t, err)

	assert.Equal(t, s1.PublicKeyID(), s2.PublicKeyID())
}

func TestNewEd25519Signer_KeyIDIsStablePrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing.key")
	s, err := NewEd25519Signer(path)
	require.NoError(t, err)
	assert.Contains(t, s.PublicKeyID(), "ed25519:")
}

func TestHMACSigner_KeyIDDerivedFromSecretFingerprint(t *testing.T) {
	s1 := NewHMACSigner([]byte("secret-a"))
	s2 := NewHMACSigner([]byte("secret-a"))
	s3 := NewHMACSigner([]byte("secret-b"))

	assert.Equal(t, s1.PublicKeyID(), s2.PublicKeyID())
	assert.NotEqual(t, s1.PublicKeyID(), s3.PublicKeyID())
	assert.Contains(t, s1.PublicKeyID(), "hmac:")
}

func TestVerify_RejectsUnknownKeyIDScheme(t *testing.T) {
	assert.False(t, Verify("bogus:abc", []byte("key"), []byte("data"), []byte("sig")))
}
