package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/cortexagent/cortex/internal/cerr"
)

// Credentials holds one provider's stored auth material.
type Credentials struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key,omitempty"`
	// RefreshToken/AccessToken support the OAuth device-flow tier; the
	// device flow itself is out of scope here, only storage is this
	// package's concern.
	RefreshToken string `json:"refresh_token,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
}

// keyringBackend abstracts an OS credential store. No pack dependency
// provides one (there is no keyring library among the retrieved
// examples), so the only implementation here is unavailableKeyring,
// which always reports absence and lets CredentialStore fall through to
// the encrypted-file tier.
type keyringBackend interface {
	Get(service string) (Credentials, bool, error)
	Set(service string, c Credentials) error
}

type unavailableKeyring struct{}

func (unavailableKeyring) Get(string) (Credentials, bool, error) { return Credentials{}, false, nil }
func (unavailableKeyring) Set(string, Credentials) error {
	return errors.New("config: no OS keyring backend available")
}

// CredentialStore implements the three-tier lookup: OS keyring, then an
// encrypted file, then a legacy plaintext auth.json — reading from
// whichever tier has the entry, always writing new credentials to the
// highest tier available, and re-saving a legacy plaintext hit into the
// encrypted tier so it upgrades itself over time.
type CredentialStore struct {
	dir     string
	keyring keyringBackend
	keyFile string // AES-256 key material, generated on first use
}

// NewCredentialStore builds a store rooted at dir (typically
// config.Home()).
func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{dir: dir, keyring: unavailableKeyring{}, keyFile: filepath.Join(dir, "credentials.key")}
}

func (s *CredentialStore) encryptedPath() string { return filepath.Join(s.dir, "credentials.enc") }
func (s *CredentialStore) legacyPath() string     { return filepath.Join(s.dir, "auth.json") }

// Get resolves provider's credentials from whichever tier has them.
func (s *CredentialStore) Get(provider string) (Credentials, error) {
	if c, ok, err := s.keyring.Get(provider); err != nil {
		return Credentials{}, err
	} else if ok {
		return c, nil
	}

	if c, ok, err := s.getEncrypted(provider); err != nil {
		return Credentials{}, err
	} else if ok {
		return c, nil
	}

	c, ok, err := s.getLegacy(provider)
	if err != nil {
		return Credentials{}, err
	}
	if ok {
		// Upgrade: persist into the encrypted tier so future reads skip
		// the plaintext file.
		_ = s.setEncrypted(provider, c)
		return c, nil
	}

	return Credentials{}, cerr.Newf(cerr.KindNotFound, "config.CredentialStore.Get", "no stored credentials for provider %q", provider)
}

// Set stores c for provider in the highest available tier (the keyring,
// if one is wired; otherwise the encrypted file).
func (s *CredentialStore) Set(provider string, c Credentials) error {
	if err := s.keyring.Set(provider, c); err == nil {
		return nil
	}
	return s.setEncrypted(provider, c)
}

func (s *CredentialStore) getEncrypted(provider string) (Credentials, bool, error) {
	all, err := s.readEncryptedAll()
	if err != nil {
		return Credentials{}, false, err
	}
	c, ok := all[provider]
	return c, ok, nil
}

func (s *CredentialStore) setEncrypted(provider string, c Credentials) error {
	all, err := s.readEncryptedAll()
	if err != nil {
		return err
	}
	if all == nil {
		all = map[string]Credentials{}
	}
	all[provider] = c
	return s.writeEncryptedAll(all)
}

func (s *CredentialStore) readEncryptedAll() (map[string]Credentials, error) {
	ciphertext, err := os.ReadFile(s.encryptedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cerr.New(cerr.KindIO, "config.readEncryptedAll", err)
	}
	key, err := s.loadOrCreateKey()
	if err != nil {
		return nil, err
	}
	plaintext, err := decrypt(key, ciphertext)
	if err != nil {
		return nil, cerr.New(cerr.KindIO, "config.readEncryptedAll", err)
	}
	var all map[string]Credentials
	if err := json.Unmarshal(plaintext, &all); err != nil {
		return nil, cerr.New(cerr.KindIO, "config.readEncryptedAll", err)
	}
	return all, nil
}

func (s *CredentialStore) writeEncryptedAll(all map[string]Credentials) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return cerr.New(cerr.KindIO, "config.writeEncryptedAll", err)
	}
	key, err := s.loadOrCreateKey()
	if err != nil {
		return err
	}
	plaintext, err := json.Marshal(all)
	if err != nil {
		return cerr.New(cerr.KindIO, "config.writeEncryptedAll", err)
	}
	ciphertext, err := encrypt(key, plaintext)
	if err != nil {
		return cerr.New(cerr.KindIO, "config.writeEncryptedAll", err)
	}
	return os.WriteFile(s.encryptedPath(), ciphertext, 0o600)
}

func (s *CredentialStore) getLegacy(provider string) (Credentials, bool, error) {
	data, err := os.ReadFile(s.legacyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, false, nil
		}
		return Credentials{}, false, cerr.New(cerr.KindIO, "config.getLegacy", err)
	}
	var all map[string]Credentials
	if err := json.Unmarshal(data, &all); err != nil {
		return Credentials{}, false, cerr.New(cerr.KindIO, "config.getLegacy", err)
	}
	c, ok := all[provider]
	return c, ok, nil
}

func (s *CredentialStore) loadOrCreateKey() ([]byte, error) {
	data, err := os.ReadFile(s.keyFile)
	if err == nil && len(data) == 32 {
		return data, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, cerr.New(cerr.KindIO, "config.loadOrCreateKey", err)
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, cerr.New(cerr.KindIO, "config.loadOrCreateKey", err)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, cerr.New(cerr.KindIO, "config.loadOrCreateKey", err)
	}
	if err := os.WriteFile(s.keyFile, key, 0o600); err != nil {
		return nil, cerr.New(cerr.KindIO, "config.loadOrCreateKey", err)
	}
	return key, nil
}

func encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("config: ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
