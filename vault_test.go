package lecture_archiver

import (
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	payloads := [][]byte{
		[]byte(""),
		[]byte("x"),
		[]byte(`{"PLAY_SESSION": "abc123", "CloudFront-Key-Pair-Id": "APK..."}`),
		{0x00, 0xff, 0x10, 0x80},
	}
	for _, payload := range payloads {
		blob, err := Encrypt(payload, "hunter2")
		require.NoError(err)

		decrypted, err := Decrypt(blob, "hunter2")
		require.NoError(err)
		assert.NotNil(decrypted)
		assert.Equal(payload, decrypted)
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	blob, err := Encrypt([]byte("payload"), "correct horse")
	require.NoError(err)

	_, err = Decrypt(blob, "battery staple")
	assert.ErrorIs(err, ErrDecryption)
}

func TestDecryptTamperedData(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	blob, err := Encrypt([]byte("payload"), "pw")
	require.NoError(err)

	// Flip a ciphertext bit: authenticated encryption must refuse, not
	// silently corrupt.
	blob[len(blob)-1] ^= 0x01
	_, err = Decrypt(blob, "pw")
	assert.ErrorIs(err, ErrDecryption)

	_, err = Decrypt([]byte("short"), "pw")
	assert.ErrorIs(err, ErrDecryption)
}

func TestEncryptUniqueSalts(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	a, err := Encrypt([]byte("payload"), "pw")
	require.NoError(err)
	b, err := Encrypt([]byte("payload"), "pw")
	require.NoError(err)
	assert.NotEqual(a[:vaultSaltSize], b[:vaultSaltSize])
}

func newTestVault(t *testing.T, p Prompter) *Vault {
	t.Helper()
	return &Vault{
		Path:     filepath.Join(t.TempDir(), "session.cookies"),
		Prompter: p,
		Log:      zap.NewNop().Sugar(),
	}
}

func TestVaultSaveLoadEncrypted(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	cookies := SessionCookies{"PLAY_SESSION": "abc", "ECHO_JWT": "def"}
	vault := newTestVault(t, &scriptedPrompter{answers: []string{"y"}, secrets: []string{"pw", "pw"}})

	require.NoError(vault.Save(cookies))

	// The cookie values must not be readable from the file.
	raw, err := os.ReadFile(vault.Path)
	require.NoError(err)
	assert.NotContains(string(raw), "abc")

	loaded := vault.Load()
	require.True(loaded.IsSome())
	assert.Equal(cookies, loaded.Value)
}

func TestVaultSaveLoadPlaintext(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	cookies := SessionCookies{"PLAY_SESSION": "abc"}
	// Empty password: stored unencrypted, and Load must not ask for one.
	vault := newTestVault(t, &scriptedPrompter{answers: []string{"yes"}, secrets: []string{""}})

	require.NoError(vault.Save(cookies))

	loaded := vault.Load()
	require.True(loaded.IsSome())
	assert.Equal(cookies, loaded.Value)
}

func TestVaultSaveDeclined(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	vault := newTestVault(t, &scriptedPrompter{answers: []string{"n"}})
	require.NoError(vault.Save(SessionCookies{"a": "b"}))

	_, err := os.Stat(vault.Path)
	assert.True(os.IsNotExist(err))
}

func TestVaultLoadAbsent(t *testing.T) {
	assert := assert_.New(t)
	vault := newTestVault(t, &scriptedPrompter{})
	loaded := vault.Load()
	assert.True(loaded.IsNone())
}

func TestVaultLoadWrongPassword(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	vault := newTestVault(t, &scriptedPrompter{answers: []string{"y"}, secrets: []string{"right", "wrong"}})
	require.NoError(vault.Save(SessionCookies{"a": "b"}))

	// Wrong password degrades to "no cached session", not a crash.
	loaded := vault.Load()
	assert.True(loaded.IsNone())
}

func TestVaultLoadGarbageFile(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	vault := newTestVault(t, &scriptedPrompter{})
	require.NoError(os.WriteFile(vault.Path, []byte("not an envelope"), 0600))
	loaded := vault.Load()
	assert.True(loaded.IsNone())
}
