package lecture_archiver

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"

	"github.com/alanbriolat/lecture-archiver/generic"
)

const (
	vaultSaltSize   = 16
	vaultKeySize    = 32
	vaultIterations = 100_000
)

// Encrypt seals a payload with a password-derived key. The output is
// salt || nonce || ciphertext; the cipher is authenticated, so tampering is
// detected at decryption time rather than producing garbage.
func Encrypt(payload []byte, password string) ([]byte, error) {
	salt := make([]byte, vaultSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := newVaultAEAD(password, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, vaultSaltSize+len(nonce)+len(payload)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, payload, nil), nil
}

// Decrypt reverses Encrypt. A wrong password, truncated blob or modified
// ciphertext all fail with ErrDecryption.
func Decrypt(blob []byte, password string) ([]byte, error) {
	if len(blob) < vaultSaltSize {
		return nil, fmt.Errorf("%w: data too short", ErrDecryption)
	}
	salt, rest := blob[:vaultSaltSize], blob[vaultSaltSize:]
	aead, err := newVaultAEAD(password, salt)
	if err != nil {
		return nil, err
	}
	if len(rest) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: data too short", ErrDecryption)
	}
	nonce, ciphertext := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	// Open into a non-nil buffer so an empty payload round-trips as empty,
	// not nil.
	payload, err := aead.Open(make([]byte, 0, len(ciphertext)), nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return payload, nil
}

func newVaultAEAD(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, vaultIterations, vaultKeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// cookieEnvelope is the on-disk shape of a persisted session. There is no
// format versioning: anything that fails to parse or decrypt is treated as
// an absent session.
type cookieEnvelope struct {
	Encrypted bool   `json:"encrypted"`
	Payload   []byte `json:"payload"`
}

// A Vault persists a session's cookies to a local file, optionally encrypted
// with a user-supplied password, so subsequent runs can skip the interactive
// login.
type Vault struct {
	Path     string
	Prompter Prompter
	Log      *zap.SugaredLogger
}

// Save offers to persist the cookies. The user can decline (no-op), or leave
// the password empty to store the payload unencrypted; the envelope records
// which so Load knows whether to ask for a password.
func (v *Vault) Save(cookies SessionCookies) error {
	save, err := v.Prompter.Confirm("Save session to prevent having to log in again (y/n): ")
	if err != nil || !save {
		return err
	}
	password, err := v.Prompter.AskSecret("Enter a password to encrypt the session file (leave blank for no encryption): ")
	if err != nil {
		return err
	}

	payload, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	envelope := cookieEnvelope{}
	if password != "" {
		envelope.Encrypted = true
		if envelope.Payload, err = Encrypt(payload, password); err != nil {
			return err
		}
	} else {
		envelope.Payload = payload
	}

	data, err := json.Marshal(&envelope)
	if err != nil {
		return err
	}
	if err := os.WriteFile(v.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load reads a previously saved session. It returns None when the file is
// missing, and degrades to None (with a logged error) when the file can't be
// parsed or decrypted, so a bad session file just forces a fresh login.
func (v *Vault) Load() generic.Option[SessionCookies] {
	data, err := os.ReadFile(v.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			v.Log.Warnf("Could not read session file %s: %v", v.Path, err)
		}
		return generic.None[SessionCookies]()
	}

	var envelope cookieEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		v.Log.Errorf("Session file %s is not in a recognized format: %v", v.Path, err)
		return generic.None[SessionCookies]()
	}

	payload := envelope.Payload
	if envelope.Encrypted {
		password, err := v.Prompter.AskSecret("Enter the password to decrypt the session file: ")
		if err != nil {
			return generic.None[SessionCookies]()
		}
		if payload, err = Decrypt(envelope.Payload, password); err != nil {
			v.Log.Errorf("Failed to decrypt session file: %v", err)
			return generic.None[SessionCookies]()
		}
	}

	var cookies SessionCookies
	if err := json.Unmarshal(payload, &cookies); err != nil {
		v.Log.Errorf("Session file %s has an invalid payload: %v", v.Path, err)
		return generic.None[SessionCookies]()
	}
	return generic.Some(cookies)
}
