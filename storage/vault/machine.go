package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const installationFile = ".installation_id"

// machineFingerprint builds the fallback secret used when no master password
// is supplied: a persisted installation id, the OS identity and the local
// username, hashed down to a fixed-length hex string.
func (v *Vault) machineFingerprint() (string, error) {
	id, err := v.installationID()
	if err != nil {
		return "", err
	}

	username := "default"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}

	combined := strings.Join([]string{id, runtime.GOOS + runtime.GOARCH, username}, "_")
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])[:32], nil
}

// installationID reuses the persisted per-installation UUID, generating one on
// first use.
func (v *Vault) installationID() (string, error) {
	path := filepath.Join(v.dir, installationFile)
	raw, err := ioutil.ReadFile(path)
	if err == nil {
		if id, perr := uuid.Parse(strings.TrimSpace(string(raw))); perr == nil {
			return id.String(), nil
		}
	} else if !os.IsNotExist(err) {
		return "", errors.Wrap(err, "reading installation id")
	}

	id := uuid.New().String()
	if err := os.MkdirAll(v.dir, 0o700); err != nil {
		return "", errors.Wrap(err, "creating vault directory")
	}
	if err := writeFileAtomic(path, []byte(id), 0o600); err != nil {
		return "", errors.Wrap(err, "persisting installation id")
	}
	return id, nil
}
