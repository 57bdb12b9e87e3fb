package vault

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func newTestVault(t *testing.T) *Vault {
	return New(t.TempDir(), nil)
}

func Test_Vault_encryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t)

	tests := []struct {
		name   string
		plain  string
		master []string
	}{
		{name: "machine key", plain: "s3cret"},
		{name: "master password", plain: "s3cret", master: []string{"master-pwd"}},
		{name: "empty plaintext", plain: ""},
		{name: "unicode", plain: "pässwörd ✓", master: []string{"m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := v.Encrypt(tt.plain, tt.master...)
			if err != nil {
				t.Fatalf("Encrypt() failed: %v", err)
			}
			if enc == tt.plain && tt.plain != "" {
				t.Error("Encrypt() returned the plaintext")
			}
			if got := v.Decrypt(enc, tt.master...); got != tt.plain {
				t.Errorf("Decrypt() = %q, want %q", got, tt.plain)
			}
		})
	}
}

func Test_Vault_decryptFailuresYieldEmpty(t *testing.T) {
	v := newTestVault(t)
	enc, err := v.Encrypt("s3cret", "right-master")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	tests := []struct {
		name       string
		ciphertext string
		master     []string
	}{
		{name: "wrong master", ciphertext: enc, master: []string{"wrong-master"}},
		{name: "machine key against master ciphertext", ciphertext: enc},
		{name: "not base64", ciphertext: "%%%not-base64%%%", master: []string{"right-master"}},
		{name: "too short", ciphertext: "YWJj", master: []string{"right-master"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Decrypt(tt.ciphertext, tt.master...); got != "" {
				t.Errorf("Decrypt() = %q, want empty", got)
			}
		})
	}
}

func Test_Vault_nonDeterministicCiphertext(t *testing.T) {
	v := newTestVault(t)
	enc1, err := v.Encrypt("s3cret")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}
	enc2, err := v.Encrypt("s3cret")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}
	if enc1 == enc2 {
		t.Error("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func Test_Vault_SaveGet(t *testing.T) {
	v := newTestVault(t)

	if err := v.Save("lms_campus_https://campus.test", "ada", "pwd", true); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	creds := v.Get("lms_campus_https://campus.test")
	if creds.IsZero() {
		t.Fatal("Get() returned zero Credentials")
	}
	if creds.Username != "ada" || creds.Password != "pwd" || !creds.Remember {
		t.Errorf("unexpected credentials %+v", creds)
	}

	// a second vault over the same directory sees the same entry
	v2 := New(v.dir, nil)
	if got := v2.Get("lms_campus_https://campus.test"); got.Password != "pwd" {
		t.Errorf("fresh vault Get().Password = %q, want %q", got.Password, "pwd")
	}
}

func Test_Vault_SaveRememberFalseIsNoop(t *testing.T) {
	v := newTestVault(t)

	if err := v.Save("svc", "ada", "pwd", false); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(v.credentialsPath()); !os.IsNotExist(err) {
		t.Error("credentials file written for remember=false")
	}
	if got := v.Get("svc"); !got.IsZero() {
		t.Errorf("Get() = %+v, want zero", got)
	}
}

func Test_Vault_GetDegradesToZero(t *testing.T) {
	t.Run("absent entry", func(t *testing.T) {
		v := newTestVault(t)
		if got := v.Get("missing"); !got.IsZero() {
			t.Errorf("Get() = %+v, want zero", got)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		v := newTestVault(t)
		if err := os.WriteFile(v.credentialsPath(), []byte("not json"), 0o600); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
		if got := v.Get("svc"); !got.IsZero() {
			t.Errorf("Get() = %+v, want zero", got)
		}
	})

	t.Run("master rotated", func(t *testing.T) {
		v := newTestVault(t)
		if err := v.Save("svc", "ada", "pwd", true, "old-master"); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
		if got := v.Get("svc", "new-master"); !got.IsZero() {
			t.Errorf("Get() = %+v, want zero", got)
		}
	})
}

func Test_Vault_DeleteServicesClear(t *testing.T) {
	v := newTestVault(t)
	if err := v.Save("svc1", "ada", "pwd1", true); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := v.Save("svc2", "bob", "pwd2", true); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	services := v.Services()
	sort.Strings(services)
	if len(services) != 2 || services[0] != "svc1" || services[1] != "svc2" {
		t.Errorf("Services() = %v, want [svc1 svc2]", services)
	}

	if err := v.Delete("svc1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if got := v.Get("svc1"); !got.IsZero() {
		t.Error("Get(svc1) not zero after Delete")
	}
	if got := v.Get("svc2"); got.IsZero() {
		t.Error("Delete(svc1) lost svc2")
	}

	// deleting a missing entry is fine
	if err := v.Delete("ghost"); err != nil {
		t.Errorf("Delete(ghost) = %v, want nil", err)
	}

	if err := v.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if got := v.Services(); got != nil {
		t.Errorf("Services() = %v after Clear, want nil", got)
	}
	if err := v.Clear(); err != nil {
		t.Errorf("second Clear() = %v, want nil", err)
	}
}

func Test_Vault_saltPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	v1 := New(dir, nil)
	enc, err := v1.Encrypt("s3cret")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	salt1, err := os.ReadFile(filepath.Join(dir, saltFile))
	if err != nil {
		t.Fatalf("reading salt failed: %v", err)
	}
	if len(salt1) != saltLen {
		t.Fatalf("len(salt) = %d, want %d", len(salt1), saltLen)
	}

	v2 := New(dir, nil)
	if got := v2.Decrypt(enc); got != "s3cret" {
		t.Errorf("Decrypt() across instances = %q, want %q", got, "s3cret")
	}

	// two installations derive different keys
	other := New(t.TempDir(), nil)
	if got := other.Decrypt(enc); got != "" {
		t.Errorf("Decrypt() under a foreign salt = %q, want empty", got)
	}
}

func Test_Vault_installationIDStable(t *testing.T) {
	v := newTestVault(t)
	id1, err := v.installationID()
	if err != nil {
		t.Fatalf("installationID() failed: %v", err)
	}
	id2, err := v.installationID()
	if err != nil {
		t.Fatalf("installationID() failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("installation id changed between reads: %q vs %q", id1, id2)
	}
}
