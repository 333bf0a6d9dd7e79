package secrets

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealUnseal_RoundTrip(t *testing.T) {
	box, err := Open(filepath.Join(t.TempDir(), "seal.key"))
	require.NoError(t, err)

	sealed, err := box.Seal("sk-very-secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "sealed:"))
	assert.NotContains(t, sealed, "sk-very-secret")

	plain, err := box.Unseal(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-very-secret", plain)
}

func TestUnseal_PassesThroughPlaintext(t *testing.T) {
	box, err := Open(filepath.Join(t.TempDir(), "seal.key"))
	require.NoError(t, err)

	plain, err := box.Unseal("legacy-plaintext-key")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plaintext-key", plain)

	empty, err := box.Unseal("")
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func TestOpen_ReusesPersistedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seal.key")

	first, err := Open(path)
	require.NoError(t, err)
	sealed, err := first.Seal("secret")
	require.NoError(t, err)

	second, err := Open(path)
	require.NoError(t, err)
	plain, err := second.Unseal(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret", plain)
}

func TestUnseal_RejectsTampering(t *testing.T) {
	box, err := Open(filepath.Join(t.TempDir(), "seal.key"))
	require.NoError(t, err)

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	tampered := sealed[:len(sealed)-2] + "AA"
	_, err = box.Unseal(tampered)
	assert.Error(t, err)
}
