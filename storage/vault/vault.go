package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"

	"github.com/lmsexplorer/lmsexplorer/core"
)

const (
	credentialsFile = ".credentials"
	saltFile        = ".vault_salt"

	kdfIterations = 100000
	keyLen        = 32
	saltLen       = 16
)

// Credentials is a decrypted vault entry. The zero value means "not
// remembered": absent, corrupt or undecryptable entries all degrade to it.
type Credentials struct {
	Username string
	Password string
	Remember bool
}

func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Password == "" && !c.Remember
}

type storedEntry struct {
	Username string `json:"username"`
	Password string `json:"password"` // base64 ciphertext
	Remember bool   `json:"remember"`
}

// Vault persists passwords across sessions without storing them in plaintext.
// Keys derive from a master password, or from a machine fingerprint when none
// is given. The salt is random per installation and persisted next to the
// credentials file.
type Vault struct {
	dir    string
	logger core.Logger

	mu sync.Mutex
	// derived key cache, per master password
	keys map[string][]byte
}

func New(dir string, logger core.Logger) *Vault {
	return &Vault{dir: dir, logger: logger, keys: make(map[string][]byte)}
}

func (v *Vault) credentialsPath() string { return filepath.Join(v.dir, credentialsFile) }
func (v *Vault) saltPath() string        { return filepath.Join(v.dir, saltFile) }

// key derives (and caches) the symmetric key for the given master password.
func (v *Vault) key(master string) ([]byte, error) {
	if k, ok := v.keys[master]; ok {
		return k, nil
	}

	secret := master
	if secret == "" {
		fp, err := v.machineFingerprint()
		if err != nil {
			return nil, errors.Wrap(err, "building machine fingerprint")
		}
		secret = fp
	}

	salt, err := v.loadOrCreateSalt()
	if err != nil {
		return nil, err
	}
	k := pbkdf2.Key([]byte(secret), salt, kdfIterations, keyLen, sha256.New)
	v.keys[master] = k
	return k, nil
}

// loadOrCreateSalt reuses the persisted installation salt, generating a random
// one on first use.
func (v *Vault) loadOrCreateSalt() ([]byte, error) {
	salt, err := ioutil.ReadFile(v.saltPath())
	if err == nil && len(salt) == saltLen {
		return salt, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "reading salt")
	}

	salt = make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "generating salt")
	}
	if err := os.MkdirAll(v.dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating vault directory")
	}
	if err := writeFileAtomic(v.saltPath(), salt, 0o600); err != nil {
		return nil, errors.Wrap(err, "persisting salt")
	}
	return salt, nil
}

// Encrypt seals the plaintext with AES-256-GCM under the derived key and
// base64-encodes nonce+ciphertext for storage.
func (v *Vault) Encrypt(plaintext string, master ...string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.encrypt(plaintext, masterOf(master))
}

func (v *Vault) encrypt(plaintext, master string) (string, error) {
	aead, err := v.aead(master)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "generating nonce")
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampering, corruption and wrong keys all yield ""
// rather than an error: a rotated master key degrades to "not remembered".
func (v *Vault) Decrypt(ciphertext string, master ...string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.decrypt(ciphertext, masterOf(master))
}

func (v *Vault) decrypt(ciphertext, master string) string {
	aead, err := v.aead(master)
	if err != nil {
		return ""
	}
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(sealed) < aead.NonceSize() {
		return ""
	}
	nonce, data := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, data, nil)
	if err != nil {
		return ""
	}
	return string(plain)
}

func (v *Vault) aead(master string) (cipher.AEAD, error) {
	key, err := v.key(master)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}
	return cipher.NewGCM(block)
}

// Save merges the entry into the credentials map and rewrites the whole file.
// When remember is false nothing is persisted.
func (v *Vault) Save(service, username, password string, remember bool, master ...string) error {
	if !remember {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	creds, err := v.load()
	if err != nil {
		creds = make(map[string]storedEntry)
	}

	encrypted, err := v.encrypt(password, masterOf(master))
	if err != nil {
		return errors.Wrap(err, "encrypting password")
	}
	creds[service] = storedEntry{
		Username: username,
		Password: encrypted,
		Remember: true,
	}
	return v.store(creds)
}

// Get looks up and decrypts the entry for service; zero Credentials when
// absent, corrupt or not remembered.
func (v *Vault) Get(service string, master ...string) Credentials {
	v.mu.Lock()
	defer v.mu.Unlock()

	creds, err := v.load()
	if err != nil {
		return Credentials{}
	}
	entry, ok := creds[service]
	if !ok || !entry.Remember {
		return Credentials{}
	}
	password := v.decrypt(entry.Password, masterOf(master))
	if password == "" {
		return Credentials{}
	}
	return Credentials{
		Username: entry.Username,
		Password: password,
		Remember: true,
	}
}

func (v *Vault) Delete(service string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	creds, err := v.load()
	if err != nil {
		return nil // nothing stored
	}
	if _, ok := creds[service]; !ok {
		return nil
	}
	delete(creds, service)
	return v.store(creds)
}

// Services lists the service keys with stored credentials.
func (v *Vault) Services() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	creds, err := v.load()
	if err != nil {
		return nil
	}
	services := make([]string, 0, len(creds))
	for svc := range creds {
		services = append(services, svc)
	}
	return services
}

// Clear removes the whole credentials file.
func (v *Vault) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := os.Remove(v.credentialsPath()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "clearing credentials")
	}
	return nil
}

func (v *Vault) load() (map[string]storedEntry, error) {
	raw, err := ioutil.ReadFile(v.credentialsPath())
	if err != nil {
		return nil, err
	}
	creds := make(map[string]storedEntry)
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func (v *Vault) store(creds map[string]storedEntry) error {
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding credentials")
	}
	if err := os.MkdirAll(v.dir, 0o700); err != nil {
		return errors.Wrap(err, "creating vault directory")
	}
	if err := writeFileAtomic(v.credentialsPath(), raw, 0o600); err != nil {
		return errors.Wrap(err, "writing credentials")
	}
	return nil
}

// writeFileAtomic writes through a temp file and renames it into place so a
// concurrent reader never observes a half-written map.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := ioutil.TempFile(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func masterOf(master []string) string {
	if len(master) > 0 {
		return master[0]
	}
	return ""
}
