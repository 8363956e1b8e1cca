package storage

import "errors"

var (
	// ErrProviderNotFound is returned when a provider is not found
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderFetch is returned when the provider lookup itself failed.
	// Callers must be able to tell "tenant has no providers" (empty list)
	// apart from "we couldn't find out" (this error).
	ErrProviderFetch = errors.New("provider fetch failed")

	// ErrDecryptFailed is returned when a stored credential cannot be
	// decrypted (wrong key, tampered tag, malformed ciphertext). This is a
	// credential problem, never a transient fault.
	ErrDecryptFailed = errors.New("credential decryption failed")
)
