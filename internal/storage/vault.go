package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Vault encrypts and decrypts provider credentials at rest.
//
// Current format (AES-256-GCM): "iv:authTag:body", each part hex-encoded.
// Tampering is detected through the auth tag, not just hidden by the cipher.
//
// Legacy format (AES-256-CBC): "iv:body", two hex parts, produced by the
// previous settings service with a scrypt-derived key. Legacy data stays
// decryptable for in-place migration but is never written fresh.
type Vault struct {
	key       []byte
	legacyKey []byte
}

const (
	vaultIVSize  = 12 // GCM standard nonce size
	legacyIVSize = 16 // CBC block size
)

// NewVault creates a vault from a 64-hex-character (32 byte) key. The key
// is validated eagerly so a misconfigured deployment fails at startup, not
// by silently producing undecryptable ciphertext.
func NewVault(hexKey string) (*Vault, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("credential key cannot be empty")
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("credential key must be valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("credential key must be 32 bytes after hex decoding, got %d", len(key))
	}

	// The legacy CBC writer derived its key from the hex string itself
	// (Node crypto.scryptSync with a static salt). Kept for read-only
	// compatibility with rows written before the GCM migration.
	legacyKey, err := scrypt.Key([]byte(hexKey), []byte("salt"), 16384, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive legacy key: %w", err)
	}

	return &Vault{key: key, legacyKey: legacyKey}, nil
}

// GenerateVaultKey generates a random 32-byte key as a hex string suitable
// for the AI_CREDENTIAL_KEY environment variable.
func GenerateVaultKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// IsLegacyFormat distinguishes the two ciphertext formats by part count:
// two parts is legacy CBC, three parts is current GCM.
func IsLegacyFormat(ciphertext string) bool {
	return len(strings.Split(ciphertext, ":")) == 2
}

// Encrypt encrypts plaintext into the current "iv:authTag:body" format.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, vaultIVSize)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	iv := make([]byte, vaultIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	// Seal appends body||tag; split them so the stored format carries the
	// tag as its own part.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()
	body, tag := sealed[:tagStart], sealed[tagStart:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(body),
	), nil
}

// Decrypt decrypts either ciphertext format. Three parts goes through the
// authenticated GCM path, two parts through the legacy CBC path. Any
// failure wraps ErrDecryptFailed.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	parts := strings.Split(ciphertext, ":")
	switch len(parts) {
	case 3:
		return v.decryptGCM(parts[0], parts[1], parts[2])
	case 2:
		return v.DecryptLegacy(ciphertext)
	default:
		return "", fmt.Errorf("%w: expected 2 or 3 parts, got %d", ErrDecryptFailed, len(parts))
	}
}

func (v *Vault) decryptGCM(ivHex, tagHex, bodyHex string) (string, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("%w: malformed iv: %v", ErrDecryptFailed, err)
	}
	tag, err := hex.DecodeString(tagHex)
	if err != nil {
		return "", fmt.Errorf("%w: malformed auth tag: %v", ErrDecryptFailed, err)
	}
	body, err := hex.DecodeString(bodyHex)
	if err != nil {
		return "", fmt.Errorf("%w: malformed body: %v", ErrDecryptFailed, err)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return "", fmt.Errorf("%w: bad iv size: %v", ErrDecryptFailed, err)
	}

	plaintext, err := gcm.Open(nil, iv, append(body, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	return string(plaintext), nil
}

// DecryptLegacy decrypts the two-part "iv:body" CBC format. It rejects
// three-part ciphertexts; those must go through the authenticated path.
func (v *Vault) DecryptLegacy(ciphertext string) (string, error) {
	parts := strings.Split(ciphertext, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: not a legacy ciphertext", ErrDecryptFailed)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: malformed iv: %v", ErrDecryptFailed, err)
	}
	if len(iv) != legacyIVSize {
		return "", fmt.Errorf("%w: legacy iv must be %d bytes, got %d", ErrDecryptFailed, legacyIVSize, len(iv))
	}
	body, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: malformed body: %v", ErrDecryptFailed, err)
	}
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: legacy body is not block-aligned", ErrDecryptFailed)
	}

	block, err := aes.NewCipher(v.legacyKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, body)

	plaintext, err = stripPKCS7(plaintext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	return string(plaintext), nil
}

// encryptLegacy exists only so tests can produce legacy-format fixtures.
// Production code never writes the CBC format.
func (v *Vault) encryptLegacy(plaintext string) (string, error) {
	iv := make([]byte, legacyIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	block, err := aes.NewCipher(v.legacyKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := padPKCS7([]byte(plaintext), aes.BlockSize)
	body := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(body, padded)

	return fmt.Sprintf("%s:%s", hex.EncodeToString(iv), hex.EncodeToString(body)), nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func stripPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-padLen], nil
}
