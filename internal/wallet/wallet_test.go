package wallet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test private key from Foundry/Anvil - NEVER use for real funds
const testPrivateKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const testPrivateKeyWithPrefix = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestLoadFromHex(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"without prefix", testPrivateKeyHex},
		{"with prefix", testPrivateKeyWithPrefix},
		{"with whitespace", "  " + testPrivateKeyWithPrefix + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := LoadFromHex(tt.input)
			require.NoError(t, err)
			assert.Equal(t, testAddress, GetAddress(key))
		})
	}
}

func TestLoadFromHex_Invalid(t *testing.T) {
	_, err := LoadFromHex("not-hex-at-all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid hex")

	_, err = LoadFromHex("abcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid private key")
}

func TestEncodeHex(t *testing.T) {
	key, err := LoadFromHex(testPrivateKeyHex)
	require.NoError(t, err)
	assert.Equal(t, testPrivateKeyWithPrefix, EncodeHex(key))
}

func TestLoadFromReader(t *testing.T) {
	key, err := LoadFromReader(strings.NewReader(testPrivateKeyHex + "\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, testAddress, GetAddress(key))

	_, err = LoadFromReader(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no private key piped")
}

func writeKeystore(t *testing.T, password string) string {
	t.Helper()
	key, err := crypto.HexToECDSA(testPrivateKeyHex)
	require.NoError(t, err)

	data, err := keystore.EncryptKey(&keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, password, keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keystore.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadFromKeystore(t *testing.T) {
	path := writeKeystore(t, "hunter2")

	key, err := LoadFromKeystore(path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testAddress, GetAddress(key))

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong password")
}

func TestLoadFromKeystore_FileNotFound(t *testing.T) {
	_, err := LoadFromKeystore("/nonexistent/path/keystore.json", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read keystore file")
}

func TestLoad_Priority(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")
	other := "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

	t.Run("keystore wins", func(t *testing.T) {
		key, err := Load(Source{Keystore: writeKeystore(t, "pw"), Password: "pw", Hex: other})
		require.NoError(t, err)
		assert.Equal(t, testAddress, GetAddress(key))
	})

	t.Run("hex before env", func(t *testing.T) {
		t.Setenv("PRIVATE_KEY", other)
		key, err := Load(Source{Hex: testPrivateKeyHex})
		require.NoError(t, err)
		assert.Equal(t, testAddress, GetAddress(key))
	})

	t.Run("env before stdin", func(t *testing.T) {
		t.Setenv("PRIVATE_KEY", testPrivateKeyHex)
		key, err := Load(Source{Stdin: strings.NewReader(other)})
		require.NoError(t, err)
		assert.Equal(t, testAddress, GetAddress(key))
	})

	t.Run("stdin", func(t *testing.T) {
		key, err := Load(Source{Stdin: strings.NewReader(testPrivateKeyHex)})
		require.NoError(t, err)
		assert.Equal(t, testAddress, GetAddress(key))
	})

	t.Run("no source", func(t *testing.T) {
		_, err := Load(Source{})
		assert.ErrorIs(t, err, ErrNoKeySource)
	})
}
