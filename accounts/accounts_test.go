package accounts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePrivateKeyWithKeystore(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := StorePrivateKeyWithKeystore(
		"1111111111111111111111111111111111111111111111111111111111111111",
		"open sesame",
	)
	require.NoError(t, err)

	// the key dir must stay owner-only, the file too
	dirInfo, err := os.Stat(KeystoreDir())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
	fileInfo, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fileInfo.Mode().Perm())

	account, err := NewKeystoreAccount(path, "open sesame")
	require.NoError(t, err)
	wantAddr := strings.TrimSuffix(filepath.Base(path), ".json")
	assert.Equal(t, wantAddr, account.AddressHex())

	_, err = NewKeystoreAccount(path, "wrong passphrase")
	assert.Error(t, err)
}
