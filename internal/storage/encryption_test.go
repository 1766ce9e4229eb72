package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptData(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
		password  string
	}{
		{
			name:      "simple text",
			plaintext: "Hello, World!",
			password:  "test-password",
		},
		{
			name:      "empty input",
			plaintext: "",
			password:  "test-password",
		},
		{
			name:      "binary-ish payload",
			plaintext: string(make([]byte, 10000)),
			password:  "secure-password-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultEncryptionConfig(tt.password)

			encrypted, err := EncryptData([]byte(tt.plaintext), config)
			if err != nil {
				t.Fatalf("EncryptData() error = %v", err)
			}

			if bytes.Equal(encrypted, []byte(tt.plaintext)) {
				t.Error("Encrypted data should be different from plaintext")
			}

			decrypted, err := DecryptData(encrypted, config)
			if err != nil {
				t.Fatalf("DecryptData() error = %v", err)
			}
			if string(decrypted) != tt.plaintext {
				t.Errorf("Decrypted data = %q, want %q", string(decrypted), tt.plaintext)
			}
		})
	}
}

func TestDecryptDataWrongPassword(t *testing.T) {
	config := DefaultEncryptionConfig("correct-password")

	encrypted, err := EncryptData([]byte("secret message"), config)
	if err != nil {
		t.Fatalf("EncryptData() error = %v", err)
	}

	wrongConfig := DefaultEncryptionConfig("wrong-password")
	if _, err := DecryptData(encrypted, wrongConfig); err == nil {
		t.Error("DecryptData() with wrong password should fail")
	}
}

func TestEncryptDataNoPassword(t *testing.T) {
	config := &EncryptionConfig{Password: ""}

	if _, err := EncryptData([]byte("test data"), config); err == nil {
		t.Error("EncryptData() with no password should fail")
	}
}

func TestDecryptDataCorrupted(t *testing.T) {
	config := DefaultEncryptionConfig("password")

	encrypted, err := EncryptData([]byte("test data"), config)
	if err != nil {
		t.Fatalf("EncryptData() error = %v", err)
	}

	// Flip a ciphertext byte; GCM authentication must reject it.
	encrypted[len(encrypted)-1] ^= 0xFF
	if _, err := DecryptData(encrypted, config); err == nil {
		t.Error("DecryptData() on corrupted data should fail")
	}

	if _, err := DecryptData([]byte("short"), config); err == nil {
		t.Error("DecryptData() on truncated data should fail")
	}
}

func TestEncryptDecryptFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "plain.db")
	encrypted := filepath.Join(dir, "plain.db.enc")
	restored := filepath.Join(dir, "restored.db")

	content := []byte("database bytes")
	if err := os.WriteFile(source, content, 0o600); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	config := DefaultEncryptionConfig("file-password")
	if err := EncryptFile(source, encrypted, config); err != nil {
		t.Fatalf("EncryptFile() error = %v", err)
	}

	isEnc, err := IsEncrypted(encrypted)
	if err != nil {
		t.Fatalf("IsEncrypted() error = %v", err)
	}
	if !isEnc {
		t.Error("IsEncrypted() = false for encrypted file")
	}

	isEnc, err = IsEncrypted(source)
	if err != nil {
		t.Fatalf("IsEncrypted() error = %v", err)
	}
	if isEnc {
		t.Error("IsEncrypted() = true for plain file")
	}

	if err := DecryptFile(encrypted, restored, config); err != nil {
		t.Fatalf("DecryptFile() error = %v", err)
	}

	got, err := os.ReadFile(restored)
	if err != nil {
		t.Fatalf("failed to read restored file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("restored content = %q, want %q", got, content)
	}
}

func TestDecryptFileWrongFormat(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.db")
	if err := os.WriteFile(plain, []byte("not encrypted"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	config := DefaultEncryptionConfig("password")
	if err := DecryptFile(plain, filepath.Join(dir, "out.db"), config); err == nil {
		t.Error("DecryptFile() on a plain file should fail")
	}
}
