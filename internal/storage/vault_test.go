package storage

import (
	"errors"
	"strings"
	"testing"
)

const testVaultKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := NewVault(testVaultKey)
	if err != nil {
		t.Fatalf("NewVault failed: %v", err)
	}
	return v
}

func TestVault_RoundTrip(t *testing.T) {
	v := newTestVault(t)

	plaintexts := []string{
		"sk-test-key-1234567890",
		"",
		"short",
		"ключ-with-unicode-πλ",
		strings.Repeat("x", 4096),
	}

	for _, plaintext := range plaintexts {
		ciphertext, err := v.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}

		if IsLegacyFormat(ciphertext) {
			t.Errorf("Encrypt produced legacy format: %s", ciphertext)
		}
		if parts := strings.Split(ciphertext, ":"); len(parts) != 3 {
			t.Fatalf("Expected 3 ciphertext parts, got %d", len(parts))
		}

		decrypted, err := v.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("Round trip mismatch: got %q, want %q", decrypted, plaintext)
		}
	}
}

func TestVault_EncryptIsRandomized(t *testing.T) {
	v := newTestVault(t)

	first, err := v.Encrypt("same-plaintext")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	second, err := v.Encrypt("same-plaintext")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if first == second {
		t.Error("Two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestVault_TamperDetection(t *testing.T) {
	v := newTestVault(t)

	ciphertext, err := v.Encrypt("sk-secret-credential")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Flip one hex character of the auth tag
	parts := strings.Split(ciphertext, ":")
	tag := []byte(parts[1])
	if tag[0] == 'a' {
		tag[0] = 'b'
	} else {
		tag[0] = 'a'
	}
	parts[1] = string(tag)
	tampered := strings.Join(parts, ":")

	if _, err := v.Decrypt(tampered); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("Expected ErrDecryptFailed for tampered ciphertext, got %v", err)
	}
}

func TestVault_DecryptMalformed(t *testing.T) {
	v := newTestVault(t)

	cases := []string{
		"",
		"not-hex",
		"aa:bb:cc:dd",
		"zz:yy:xx",
		"0011:2233",
	}

	for _, ciphertext := range cases {
		if _, err := v.Decrypt(ciphertext); !errors.Is(err, ErrDecryptFailed) {
			t.Errorf("Decrypt(%q): expected ErrDecryptFailed, got %v", ciphertext, err)
		}
	}
}

func TestVault_LegacyRoundTrip(t *testing.T) {
	v := newTestVault(t)

	legacy, err := v.encryptLegacy("legacy-stored-key")
	if err != nil {
		t.Fatalf("encryptLegacy failed: %v", err)
	}

	if !IsLegacyFormat(legacy) {
		t.Fatalf("Expected legacy format, got %s", legacy)
	}

	// Legacy ciphertexts decrypt through both the explicit legacy path and
	// the format-dispatching Decrypt.
	decrypted, err := v.DecryptLegacy(legacy)
	if err != nil {
		t.Fatalf("DecryptLegacy failed: %v", err)
	}
	if decrypted != "legacy-stored-key" {
		t.Errorf("Expected %q, got %q", "legacy-stored-key", decrypted)
	}

	decrypted, err = v.Decrypt(legacy)
	if err != nil {
		t.Fatalf("Decrypt of legacy ciphertext failed: %v", err)
	}
	if decrypted != "legacy-stored-key" {
		t.Errorf("Expected %q, got %q", "legacy-stored-key", decrypted)
	}
}

func TestVault_DecryptLegacyRejectsCurrentFormat(t *testing.T) {
	v := newTestVault(t)

	ciphertext, err := v.Encrypt("current-format")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := v.DecryptLegacy(ciphertext); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("Expected ErrDecryptFailed for 3-part ciphertext, got %v", err)
	}
}

func TestIsLegacyFormat(t *testing.T) {
	if !IsLegacyFormat("aabb:ccdd") {
		t.Error("Two-part ciphertext should be legacy")
	}
	if IsLegacyFormat("aabb:ccdd:eeff") {
		t.Error("Three-part ciphertext should not be legacy")
	}
	if IsLegacyFormat("aabbccdd") {
		t.Error("One-part string should not be legacy")
	}
}

func TestNewVault_RejectsBadKeys(t *testing.T) {
	cases := []string{
		"",
		"deadbeef",               // too short
		testVaultKey + "00",      // too long
		strings.Repeat("zz", 32), // not hex
	}

	for _, key := range cases {
		if _, err := NewVault(key); err == nil {
			t.Errorf("NewVault(%q): expected error, got nil", key)
		}
	}
}

func TestGenerateVaultKey(t *testing.T) {
	key, err := GenerateVaultKey()
	if err != nil {
		t.Fatalf("GenerateVaultKey failed: %v", err)
	}
	if len(key) != 64 {
		t.Fatalf("Expected 64 hex chars, got %d", len(key))
	}
	if _, err := NewVault(key); err != nil {
		t.Errorf("Generated key rejected by NewVault: %v", err)
	}
}
